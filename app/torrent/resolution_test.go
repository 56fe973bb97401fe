package torrent

import (
	"testing"
	"time"
)

func TestResolutionCodec(t *testing.T) {
	resolved := Resolved{Hash: "0123456789abcdef0123456789abcdef", Size: 1048576, Name: "file.bin"}
	encoded, err := encodeResolution(resolved)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if encoded != `{"hash":"0123456789abcdef0123456789abcdef","size":1048576,"name":"file.bin"}` {
		t.Errorf("Unexpected encoding %s", encoded)
	}

	decoded, err := decodeResolution(encoded)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if decoded != resolved {
		t.Errorf("Expected %+v, got %+v", resolved, decoded)
	}

	failed := Unresolved{Prefix: PrefixUHD, FailedAt: time.Unix(1700000000, 0)}
	encoded, err = encodeResolution(failed)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if encoded != `{"hash":"uhd1700000000uhd","size":0}` {
		t.Errorf("Unexpected sentinel encoding %s", encoded)
	}

	decoded, err = decodeResolution(encoded)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	un, ok := decoded.(Unresolved)
	if !ok {
		t.Fatalf("Expected Unresolved, got %T", decoded)
	}
	if un.Prefix != PrefixUHD || !un.FailedAt.Equal(failed.FailedAt) {
		t.Errorf("Unexpected unresolved %+v", un)
	}
}

func TestDecodeLegacyResolution(t *testing.T) {
	decoded, err := decodeResolution("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r, ok := decoded.(Resolved); !ok || r.Hash != "0123456789abcdef0123456789abcdef" || r.Size != 0 {
		t.Errorf("Unexpected legacy decode %+v", decoded)
	}

	decoded, err = decodeResolution("chd1600000000chd")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u, ok := decoded.(Unresolved); !ok || u.Prefix != PrefixCHD {
		t.Errorf("Expected legacy sentinel to decode as Unresolved, got %+v", decoded)
	}
}

func TestDecodeResolutionErrors(t *testing.T) {
	for _, value := range []string{"", "{not json", `{"size":10}`} {
		if _, err := decodeResolution(value); err == nil {
			t.Errorf("Expected error decoding %q", value)
		}
	}
}
