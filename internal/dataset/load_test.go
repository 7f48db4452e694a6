package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var hopRows = []string{
	"plot;alpha_acids;moisture;note",
	"A1;12,5%;74;first",
	"A1;11,8%;NA;second",
	"B3;10,2%;68;",
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSVInfersKindsAndMissing(t *testing.T) {
	p := writeFile(t, "hops.csv", []byte(strings.Join(hopRows, "\n")))
	opt := DefaultLoadOptions()
	opt.Delimiter = ';'
	d, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Name != "hops.csv" || d.Rows() != 3 || d.NumCols() != 4 {
		t.Fatalf("got name=%q rows=%d cols=%d", d.Name, d.Rows(), d.NumCols())
	}
	alpha, _ := d.Column("alpha_acids")
	if alpha.Kind != Numeric {
		t.Fatalf("alpha_acids kind = %v, want numeric", alpha.Kind)
	}
	if alpha.Num[0] != 12.5 || alpha.Num[2] != 10.2 {
		t.Fatalf("alpha_acids values = %v", alpha.Num)
	}
	moist, _ := d.Column("moisture")
	if !moist.IsMissing(1) || moist.MissingCount() != 1 {
		t.Fatalf("moisture missing mask = %v", moist.Valid)
	}
	plot, _ := d.Column("plot")
	if plot.Kind != Categorical {
		t.Fatalf("plot kind = %v, want categorical", plot.Kind)
	}
	note, _ := d.Column("note")
	if !note.IsMissing(2) {
		t.Fatalf("empty note should load as missing")
	}
}

func TestLoadCompressedInputs(t *testing.T) {
	content := []byte("id,score\n1,0.5\n2,0.7\n3,\n")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(content); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err := zw.Write(content); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}

	var l4 bytes.Buffer
	lw := lz4.NewWriter(&l4)
	if _, err := lw.Write(content); err != nil {
		t.Fatalf("lz4 write: %v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("lz4 close: %v", err)
	}

	for name, data := range map[string][]byte{
		"scores.csv.gz":  gz.Bytes(),
		"scores.csv.zst": zs.Bytes(),
		"scores.csv.lz4": l4.Bytes(),
	} {
		d, err := Load(writeFile(t, name, data), DefaultLoadOptions())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d.Rows() != 3 {
			t.Fatalf("%s: rows = %d, want 3", name, d.Rows())
		}
		score, _ := d.Column("score")
		if score.Kind != Numeric || score.MissingCount() != 1 {
			t.Fatalf("%s: score = %+v", name, score)
		}
	}
}

func TestLoadForcedCategoricalAndMaxRows(t *testing.T) {
	p := writeFile(t, "zip.csv", []byte("zip,city\n02134,Boston\n10001,NYC\n94105,SF\n"))
	opt := DefaultLoadOptions()
	opt.Categorical = []string{"zip"}
	opt.MaxRows = 2
	d, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	zip, _ := d.Column("zip")
	if zip.Kind != Categorical || zip.Str[0] != "02134" {
		t.Fatalf("zip = %+v", zip)
	}
	if d.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", d.Rows())
	}
}

func TestEmptyCSVIsValidDataset(t *testing.T) {
	d, err := ReadCSV(strings.NewReader(""), DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if d.Rows() != 0 || d.NumCols() != 0 {
		t.Fatalf("expected empty dataset, got %dx%d", d.Rows(), d.NumCols())
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	d := MustNew(
		NewNumeric("x", []float64{1, 2.5, 0}, []bool{true, true, false}),
		NewCategorical("c", []string{"a", "", "b"}, []bool{true, false, true}),
	)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, d, 0); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "x,c\n1,a\n2.5,\n,b\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
	back, err := ReadCSV(&buf, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	x, _ := back.Column("x")
	if !x.Equal(mustCol(d, "x")) {
		t.Fatalf("x changed across round trip: %+v", x)
	}
}

func mustCol(d *Dataset, name string) Column {
	c, ok := d.Column(name)
	if !ok {
		panic("missing column " + name)
	}
	return c
}
