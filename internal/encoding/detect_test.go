package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := `{"payer":{"first_name":"José","last_name":"Peña"}}`

	r, err := encoding.NewUTF8Reader(bytes.NewReader([]byte(input)), "")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// Windows-1252: ñ = 0xF1
	latin1 := []byte{'{', '"', 'n', '"', ':', '"', 'P', 'e', 0xF1, 'a', '"', '}'}

	r, err := encoding.NewUTF8Reader(bytes.NewReader(latin1), "")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"n":"Peña"}`, string(got))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"id":"evt_1"}`)...)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input), "")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"evt_1"}`, string(got))
}

func TestToUTF8_DeclaredCharset(t *testing.T) {
	// ISO-8859-1: é = 0xE9
	body := []byte{'"', 'c', 'a', 'f', 0xE9, '"'}

	got, err := encoding.ToUTF8(body, "application/json; charset=ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, `"café"`, string(got))
}

func TestCharset(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{contentType: "application/json", want: ""},
		{contentType: "application/json; charset=UTF-8", want: "utf-8"},
		{contentType: "application/json;charset=iso-8859-1", want: "iso-8859-1"},
		{contentType: "", want: ""},
		{contentType: ";;;", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, encoding.Charset(tt.contentType), tt.contentType)
	}
}
