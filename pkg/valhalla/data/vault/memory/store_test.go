package memory

import (
	"testing"

	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault/tests"
)

func TestVaultMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
