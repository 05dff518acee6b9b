package bytesize

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  ByteSize
	}{
		{"1024", 1024},
		{"0", 0},
		{"5Mi", 5 * MiB},
		{"5MiB", 5 * MiB},
		{"1Gi", GiB},
		{"500KiB", 500 * KiB},
		{"100MB", 100 * MB},
		{"2kb", 2 * KB},
		{"  64 Ki ", 64 * KiB},
		{"7B", 7},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "5XB", "-1", "1.5Mi"} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", input)
			}
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("5Mi")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if b != 5*MiB {
		t.Errorf("UnmarshalText = %d, want %d", b, 5*MiB)
	}

	if err := b.UnmarshalText([]byte("nonsense")); err == nil {
		t.Error("UnmarshalText accepted invalid input")
	}
}

func TestMarshalText_RoundTrip(t *testing.T) {
	for _, size := range []ByteSize{5 * MiB, GiB, 64 * KiB, 512, 5_000_000} {
		text, err := size.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) failed: %v", uint64(size), err)
		}
		parsed, err := Parse(string(text))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", text, err)
		}
		if parsed != size {
			t.Errorf("round trip of %d gave %d", uint64(size), uint64(parsed))
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		size ByteSize
		want string
	}{
		{5 * MiB, "5MiB"},
		{GiB, "1GiB"},
		{64 * KiB, "64KiB"},
		{512, "512B"},
	}
	for _, tc := range cases {
		if got := tc.size.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", uint64(tc.size), got, tc.want)
		}
	}
}
