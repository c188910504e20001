package engines

import (
	"testing"

	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

var testVoice = ttypes.VoiceConfig{SpeakerID: "polly", LanguageID: "English", VoiceID: "Joanna", Rate: 3, Volume: 100}

func newTestStore(t *testing.T) *cache.DiskStore {
	t.Helper()
	store, err := cache.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func readArtifact(t *testing.T, store *cache.DiskStore, location string) string {
	t.Helper()
	data, err := store.Read(location)
	if err != nil {
		t.Fatalf("Read(%s) failed: %v", location, err)
	}
	return string(data)
}
