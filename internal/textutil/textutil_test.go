package textutil

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "Apple &amp; Google&nbsp;sign &quot;deal&quot;", "Apple & Google sign \"deal\""},
		{"whitespace", "  line one\n\n\tline   two  ", "line one line two"},
		{"escaped tags are stripped after decoding", "&lt;img src=x&gt;caption", "caption"},
		{"chinese", "<div>台積電\n宣布</div>", "台積電 宣布"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCJKHelpers(t *testing.T) {
	if !ContainsCJK("AI 晶片") {
		t.Error("expected CJK to be detected")
	}
	if ContainsCJK("ＡＢＣ！？") {
		t.Error("full-width Latin and punctuation are not ideographs")
	}
	if got := CountCJK("台積電 TSMC"); got != 3 {
		t.Errorf("CountCJK = %d, want 3", got)
	}
}

func TestNonASCIIRatio(t *testing.T) {
	if got := NonASCIIRatio(""); got != 0 {
		t.Errorf("empty ratio = %v", got)
	}
	if got := NonASCIIRatio("abcdéfghij"); got != 0.1 {
		t.Errorf("ratio = %v, want 0.1", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	got := Truncate("abcdefghijkl", 10)
	if got != "abcdefg..." {
		t.Errorf("got %q", got)
	}
	if RuneLen(got) != 10 {
		t.Errorf("length %d", RuneLen(got))
	}

	zh := Truncate("一二三四五六七八九十十一", 8)
	if zh != "一二三四五..." {
		t.Errorf("got %q", zh)
	}
}

func TestHead(t *testing.T) {
	if got := Head("abc", 5); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := Head("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
}
