package wasmplugin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/embedding/wasmplugin"
)

// emptyModule is the minimal valid WASM binary: the magic number and
// version, no sections, no exports. wazero compiles and instantiates it
// without a _start function, so these tests exercise the sandbox's
// compile/instantiate/stdio-capture plumbing without depending on a real
// embedding guest module.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestNew_CompilesEmptyModule(t *testing.T) {
	p, err := wasmplugin.New(context.Background(), emptyModule, wasmplugin.Config{Dimension: 4})
	require.NoError(t, err)
	defer func() { _ = p.Close(context.Background()) }()

	assert.Equal(t, 4, p.Dimension())
}

func TestNew_InvalidWasmBytesFailsToCompile(t *testing.T) {
	_, err := wasmplugin.New(context.Background(), []byte("not wasm"), wasmplugin.Config{})
	require.Error(t, err)
}

func TestEmbedContext_EmptyStdoutFailsToDecode(t *testing.T) {
	p, err := wasmplugin.New(context.Background(), emptyModule, wasmplugin.Config{Dimension: 4, CallTimeout: time.Second})
	require.NoError(t, err)
	defer func() { _ = p.Close(context.Background()) }()

	_, err = p.EmbedContext(context.Background(), "hello")
	require.Error(t, err)
}

func TestEmbedText_SwallowsErrorIntoZeroVector(t *testing.T) {
	p, err := wasmplugin.New(context.Background(), emptyModule, wasmplugin.Config{Dimension: 6, CallTimeout: time.Second})
	require.NoError(t, err)
	defer func() { _ = p.Close(context.Background()) }()

	vec := p.EmbedText("hello")
	assert.Equal(t, 6, len(vec))
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}
