package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffPlainUTF8DetectsComma(t *testing.T) {
	res, err := Sniff([]byte("a,b,c\n1,2,3\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Equal(t, byte(','), res.Separator)
}

func TestSniffStripsUTF8BOM(t *testing.T) {
	sample := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...)
	res, err := Sniff(sample, 0)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Equal(t, byte('a'), res.Sample[0])
}

func TestSniffRespectsKnownSeparator(t *testing.T) {
	res, err := Sniff([]byte("a;b,c\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, byte(';'), res.Separator)
}
