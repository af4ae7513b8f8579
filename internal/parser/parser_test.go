package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainImports(t *testing.T) {
	src := []byte(
		"# a comment\n" +
			"import A\n" +
			"import A.a, A.B.b\n" +
			"value = 1\n",
	)

	statements, err := LineExtractor{}.Extract(src)
	require.NoError(t, err)
	require.Len(t, statements, 2)

	assert.Equal(t, Statement{Names: []string{"A"}}, statements[0])
	assert.Equal(t, Statement{Names: []string{"A.a", "A.B.b"}}, statements[1])
}

func TestExtractFromImports(t *testing.T) {
	cases := []struct {
		line     string
		expected Statement
	}{
		{"from A import a", Statement{Module: "A", Names: []string{"a"}}},
		{"from A.B import b, c", Statement{Module: "A.B", Names: []string{"b", "c"}}},
		{"from . import a", Statement{Level: 1, Names: []string{"a"}}},
		{"from .B import b", Statement{Module: "B", Level: 1, Names: []string{"b"}}},
		{"from .. import a", Statement{Level: 2, Names: []string{"a"}}},
		{"from A import a as alias", Statement{Module: "A", Names: []string{"a"}}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			statements, err := LineExtractor{}.Extract([]byte(tc.line))
			require.NoError(t, err)
			require.Len(t, statements, 1)
			assert.Equal(t, tc.expected, statements[0])
		})
	}
}

func TestExtractSkipsMalformedLines(t *testing.T) {
	src := []byte(
		"from import\n" +
			"from  import a\n" +
			"import \n" +
			"from A import a\n",
	)

	statements, err := LineExtractor{}.Extract(src)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Equal(t, "A", statements[0].Module)
}

func TestExtractBinarySource(t *testing.T) {
	_, err := LineExtractor{}.Extract([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparsableSource)
}
