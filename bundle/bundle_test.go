package bundle

import (
	"strings"
	"testing"

	"github.com/rill-lang/rill/vm"
)

func sampleChunk(msg string) *vm.Chunk {
	c := vm.NewChunk()
	c.EmitConst(vm.Str(msg))
	c.Emit(vm.OpPrint)
	c.Emit(vm.OpReturnVoid)
	return c
}

func TestBundleRoundTrip(t *testing.T) {
	b := New("demo")
	if b.ID == "" {
		t.Fatal("new bundle should carry an identifier")
	}
	for _, name := range []string{"main", "lib", "aux"} {
		if err := b.Add(name, sampleChunk(name)); err != nil {
			t.Fatalf("Add(%q) failed: %v", name, err)
		}
	}

	data, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got.ID != b.ID || got.Name != b.Name {
		t.Errorf("identity = %q/%q, want %q/%q", got.ID, got.Name, b.ID, b.Name)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}

	e, ok := got.Lookup("lib")
	if !ok {
		t.Fatal("Lookup(lib) failed")
	}
	c, err := e.Chunk()
	if err != nil {
		t.Fatalf("entry did not decode: %v", err)
	}
	if v, _ := c.Constants.Get(0); !v.Equal(vm.Str("lib")) {
		t.Errorf("decoded constant = %s, want \"lib\"", v)
	}
}

func TestBundleEntriesSortedByName(t *testing.T) {
	b := New("demo")
	b.Add("zeta", sampleChunk("z"))
	b.Add("alpha", sampleChunk("a"))
	b.Add("mid", sampleChunk("m"))

	want := []string{"alpha", "mid", "zeta"}
	for i, e := range b.Entries {
		if e.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Name, want[i])
		}
	}
}

func TestBundleMarshalDeterministic(t *testing.T) {
	b := New("demo")
	b.Add("b", sampleChunk("b"))
	b.Add("a", sampleChunk("a"))

	x, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	y, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(x) != string(y) {
		t.Error("marshaling the same bundle twice should be byte-identical")
	}
}

func TestBundleRejectsDuplicateName(t *testing.T) {
	b := New("demo")
	if err := b.Add("main", sampleChunk("1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("main", sampleChunk("2")); err == nil {
		t.Error("duplicate entry name should be rejected")
	}
}

func TestUnmarshalRejectsTamperedEntry(t *testing.T) {
	b := New("demo")
	b.Add("main", sampleChunk("x"))
	data, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}

	// Flip one bit of the embedded chunk payload. The entry's declared
	// hash no longer matches, whatever the byte happened to encode.
	payload := append([]byte(nil), data...)
	idx := strings.Index(string(payload), "CHNK")
	if idx < 0 {
		t.Fatal("encoded bundle should embed the chunk magic")
	}
	payload[idx+6] ^= 0x40

	if _, err := Unmarshal(payload); err == nil {
		t.Error("tampered bundle should fail verification")
	}
}

func TestVerifyDetectsMutatedEntry(t *testing.T) {
	b := New("demo")
	b.Add("main", sampleChunk("x"))
	if err := b.Verify(); err != nil {
		t.Fatalf("fresh bundle should verify: %v", err)
	}

	b.Entries[0].Data[5] ^= 0x01
	if err := b.Verify(); err == nil {
		t.Error("mutated entry should fail verification")
	}
}

func TestBundleIDsAreUnique(t *testing.T) {
	if New("a").ID == New("b").ID {
		t.Error("bundle identifiers should be unique")
	}
}
