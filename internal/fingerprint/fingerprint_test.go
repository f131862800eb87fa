package fingerprint

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_KnownDigest(t *testing.T) {
	fp, n, err := Sum(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, Fingerprint("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"), fp)
	assert.Equal(t, int64(3), n)
}

func TestSum_IndependentOfChunking(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 10000)

	whole, _, err := Sum(bytes.NewReader(data))
	require.NoError(t, err)

	oneByte, _, err := Sum(iotest.OneByteReader(bytes.NewReader(data)))
	require.NoError(t, err)

	half, _, err := Sum(iotest.HalfReader(bytes.NewReader(data)))
	require.NoError(t, err)

	assert.Equal(t, whole, oneByte)
	assert.Equal(t, whole, half)
	assert.Len(t, string(whole), 64)
}

func TestSum_ReadFailure(t *testing.T) {
	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(boom))

	fp, _, err := Sum(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, fp)
}

func TestSpool(t *testing.T) {
	dir := t.TempDir()
	content := "X5O!P%@AP[4\\PZX54(P^)7CC)7}$EICAR"

	sp, err := Spool(strings.NewReader(content), dir, 0)
	require.NoError(t, err)
	defer sp.Remove()

	want, _, _ := Sum(strings.NewReader(content))
	assert.Equal(t, want, sp.Fingerprint)
	assert.Equal(t, int64(len(content)), sp.Size)

	got, err := os.ReadFile(sp.Path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	require.NoError(t, sp.Remove())
	_, err = os.Stat(sp.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestSpool_TooLarge(t *testing.T) {
	dir := t.TempDir()

	_, err := Spool(strings.NewReader("0123456789"), dir, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_ExactLimit(t *testing.T) {
	sp, err := Spool(strings.NewReader("12345"), t.TempDir(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sp.Size)
}
