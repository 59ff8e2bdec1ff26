package tts

import "testing"

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"abbreviation and currency", "Dr. Smith, pay $5!", "Doctor Smith, pay 5 dollars!"},
		{"singular currency", "It costs $1", "It costs 1 dollar"},
		{"currency with separators", "£1,250.50 total", "1,250.50 pounds total"},
		{"euro with space", "€ 20", "20 euros"},
		{"symbols", "R&D + QA = 100%", "R and D plus QA equals 100 percent"},
		{"at and number", "ping @home #1", "ping at home number 1"},
		{"ellipsis", "Wait...", "Wait, dot dot dot"},
		{"spaced ellipsis", "Hello . . .", "Hello, dot dot dot"},
		{"partly spaced ellipsis", ". ..", ", dot dot dot"},
		{"latin abbreviations", "fruit, e.g. apples", "fruit, for example apples"},
		{"abbreviation at end", "Meet Prof.", "Meet Professor"},
		{"no expansion inside words", "Drum etc.etera", "Drum etc.etera"},
		{"plain text untouched", "Hello world.", "Hello world."},
		{"trims", "  hi  ", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	inputs := []string{
		"Dr. Smith, pay $5!",
		"Dr . Smith",
		"A & B... vs. C",
		"50% of $1,000 = $500",
		"Mr.  Jones   & Mrs. Jones",
		"…and so on etc.",
		"#hashtag @user",
		"Hello . . .",
		". ..",
		"Dr. . . Who",
		"a &. . b",
	}

	for _, in := range inputs {
		once := Preprocess(in)
		twice := Preprocess(once)
		if once != twice {
			t.Errorf("Preprocess not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func FuzzPreprocess(f *testing.F) {
	for _, seed := range []string{
		"Dr. Smith, pay $5!",
		"Hello . . .",
		". ..",
		"Mr .  Jones",
		"£ 3 . . . €",
		"e.g.  i.e . etc .",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		once := Preprocess(in)
		if twice := Preprocess(once); twice != once {
			t.Errorf("Preprocess(%q) = %q, then %q", in, once, twice)
		}
	})
}
