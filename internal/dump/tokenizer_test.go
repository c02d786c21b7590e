package dump

import (
	"reflect"
	"sync"
	"testing"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Tuple
	}{
		{
			name: "no VALUES keyword",
			line: "CREATE TABLE `asset` (`PKAssetId` int NOT NULL);",
			want: nil,
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
		{
			name: "two tuples",
			line: "INSERT INTO `x` VALUES (1,'a','b'),(2,'c','d');",
			want: []Tuple{{"1", "a", "b"}, {"2", "c", "d"}},
		},
		{
			name: "lower case keyword",
			line: "insert into `x` values (7,'z');",
			want: []Tuple{{"7", "z"}},
		},
		{
			name: "comma inside string",
			line: "VALUES (1,'a,b,c');",
			want: []Tuple{{"1", "a,b,c"}},
		},
		{
			name: "parentheses inside string",
			line: "VALUES (1,'a(b)c');",
			want: []Tuple{{"1", "a(b)c"}},
		},
		{
			name: "doubled quote inside string",
			line: "VALUES (1,'it''s');",
			want: []Tuple{{"1", "it's"}},
		},
		{
			name: "empty string literal",
			line: "VALUES (1,'',3);",
			want: []Tuple{{"1", "", "3"}},
		},
		{
			name: "backslash escape kept for normalizer",
			line: `VALUES (1,'O\'Brien','line\r\nnext');`,
			want: []Tuple{{"1", `O\'Brien`, `line\r\nnext`}},
		},
		{
			name: "escaped backslash is not collapsed",
			line: `VALUES (1,'C:\\temp');`,
			want: []Tuple{{"1", `C:\\temp`}},
		},
		{
			name: "escaped quote does not close string",
			line: `VALUES (1,'a\',b');`,
			want: []Tuple{{"1", `a\',b`}},
		},
		{
			name: "NULL and numbers unquoted",
			line: "VALUES (1,NULL, 2.5 ,'x');",
			want: []Tuple{{"1", "NULL", "2.5", "x"}},
		},
		{
			name: "nested parentheses preserved in field",
			line: "VALUES (1,POINT(1,2),3);",
			want: []Tuple{{"1", "POINT(1,2)", "3"}},
		},
		{
			name: "surrounding whitespace trimmed at field push",
			line: "VALUES ( 1 , '  padded  ' );",
			want: []Tuple{{"1", "padded"}},
		},
		{
			name: "binary literal",
			line: `VALUES (1,_binary '\0\0');`,
			want: []Tuple{{"1", `_binary \0\0`}},
		},
		{
			name: "first VALUES wins",
			line: "INSERT INTO `t` VALUES (1,'VALUES (9)');",
			want: []Tuple{{"1", "VALUES (9)"}},
		},
		{
			name: "multibyte text",
			line: "VALUES (1,'Zürich – Ñandú');",
			want: []Tuple{{"1", "Zürich – Ñandú"}},
		},
		{
			name: "stray closing parenthesis ignored",
			line: "VALUES ) (1,'a');",
			want: []Tuple{{"1", "a"}},
		},
		{
			name: "unterminated tuple dropped",
			line: "VALUES (1,'unterminated",
			want: nil,
		},
		{
			name: "complete tuples kept before unterminated one",
			line: "VALUES (1,'a'),(2,'b",
			want: []Tuple{{"1", "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValues(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseValues(%q)\n got  %q\n want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestScanValues_Unterminated(t *testing.T) {
	stmt := ScanValues("VALUES (1,'a'),(2,'b")
	if !stmt.Unterminated {
		t.Error("expected Unterminated for open tuple")
	}
	if len(stmt.Tuples) != 1 {
		t.Fatalf("expected 1 complete tuple, got %d", len(stmt.Tuples))
	}

	stmt = ScanValues("VALUES (1,'a');")
	if stmt.Unterminated {
		t.Error("did not expect Unterminated for balanced line")
	}

	stmt = ScanValues("no keyword here")
	if stmt.Unterminated || stmt.Tuples != nil {
		t.Errorf("expected zero Statement, got %+v", stmt)
	}
}

func TestPipeline_RoundTrip(t *testing.T) {
	tuples := ParseValues("INSERT INTO `x` VALUES (10,'Acme Corp','note here');")
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple, got %d", len(tuples))
	}

	want := []string{"10", "Acme Corp", "note here"}
	for i, w := range want {
		if got := tuples[0].Field(i); got != w {
			t.Errorf("Field(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestPipeline_DoubledQuote(t *testing.T) {
	tuples := ParseValues("VALUES ('it''s')")
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple, got %d", len(tuples))
	}
	if got := tuples[0].Field(0); got != "it's" {
		t.Errorf("got %q, want %q", got, "it's")
	}
}

func TestPipeline_EscapedNewlines(t *testing.T) {
	tuples := ParseValues(`VALUES (1,'first\r\nsecond\nthird\rfourth','it\'s')`)
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple, got %d", len(tuples))
	}
	if got, want := tuples[0].Field(1), "first\nsecond\nthird\nfourth"; got != want {
		t.Errorf("Field(1) = %q, want %q", got, want)
	}
	if got, want := tuples[0].Field(2), "it's"; got != want {
		t.Errorf("Field(2) = %q, want %q", got, want)
	}
}

func TestTupleField_OutOfRange(t *testing.T) {
	tuple := Tuple{"1", "'x'"}
	if got := tuple.Field(5); got != "" {
		t.Errorf("Field(5) = %q, want empty", got)
	}
	if got := tuple.Field(-1); got != "" {
		t.Errorf("Field(-1) = %q, want empty", got)
	}
	if got := tuple.Field(1); got != "x" {
		t.Errorf("Field(1) = %q, want %q", got, "x")
	}
}

func TestParseValues_Concurrent(t *testing.T) {
	lines := []string{
		"VALUES (1,'a,b'),(2,'c')",
		"VALUES (3,'d(e)')",
		"VALUES (4,'it''s'),(5,NULL),(6,'x')",
	}
	want := make([][]Tuple, len(lines))
	for i, l := range lines {
		want[i] = ParseValues(l)
	}

	var wg sync.WaitGroup
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			i := n % len(lines)
			if got := ParseValues(lines[i]); !reflect.DeepEqual(got, want[i]) {
				t.Errorf("line %d: got %q, want %q", i, got, want[i])
			}
		}(n)
	}
	wg.Wait()
}

func TestIndexFold(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"VALUES", 0},
		{"x values", 2},
		{"ValUes (1)", 0},
		{"VALUE", -1},
		{"", -1},
		{"é VALUES", 3},
	}
	for _, tt := range tests {
		if got := indexFold(tt.s, valuesKeyword); got != tt.want {
			t.Errorf("indexFold(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func BenchmarkParseValues(b *testing.B) {
	line := "INSERT INTO `asset` VALUES " +
		"(1,0,3,12,40,'Laptop, 14\"','Issued to J. O\\'Neil\\r\\nSpare charger',1,17,NULL,'2021-03-04 10:00:00','Room (2B)',NULL,'')," +
		"(2,0,3,12,41,'Dock','',1,17,NULL,'2021-03-05 11:30:00','Room 2B',NULL,'it''s fine');"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseValues(line)
	}
}
