package version

import "testing"

func TestRangeIntersect(t *testing.T) {
	tests := []struct {
		name    string
		a       string
		b       string
		wantErr bool
		check   func(t *testing.T, r *Range)
	}{
		{
			name: "overlapping narrows to tighter bounds",
			a:    "[1.0.0, 3.0.0]",
			b:    "[2.0.0, 4.0.0]",
			check: func(t *testing.T, r *Range) {
				if r.MinVersion.String() != "2.0.0" || r.MaxVersion.String() != "3.0.0" {
					t.Errorf("got [%s, %s]", r.MinVersion, r.MaxVersion)
				}
			},
		},
		{
			name:    "disjoint ranges fail",
			a:       "[1.0.0, 2.0.0]",
			b:       "[3.0.0, 4.0.0]",
			wantErr: true,
		},
		{
			name: "open-ended narrows against bounded",
			a:    "[1.0.0, )",
			b:    "[2.0.0, 3.0.0)",
			check: func(t *testing.T, r *Range) {
				if r.MinVersion.String() != "2.0.0" || r.MaxVersion.String() != "3.0.0" || r.MaxInclusive {
					t.Errorf("got [%s, %s) inclusive=%v", r.MinVersion, r.MaxVersion, r.MaxInclusive)
				}
			},
		},
		{
			name:    "touching exclusive bounds is empty",
			a:       "[1.0.0, 2.0.0)",
			b:       "[2.0.0, 3.0.0]",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParseRange(tt.a)
			b := MustParseRange(tt.b)

			got, err := a.Intersect(b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Intersect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			tt.check(t, got)
		})
	}
}
