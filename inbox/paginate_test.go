package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	page, err := Paginate(ids, "", 2)
	require.NoError(t, err)
	assert.Equal(t, Page{IDs: []string{"a", "b"}, NextPageToken: "2"}, page)

	page, err = Paginate(ids, "2", 2)
	require.NoError(t, err)
	assert.Equal(t, Page{IDs: []string{"c", "d"}, NextPageToken: "4"}, page)

	page, err = Paginate(ids, "4", 2)
	require.NoError(t, err)
	assert.Equal(t, Page{IDs: []string{"e"}}, page)
}

func TestPaginate_Empty(t *testing.T) {
	page, err := Paginate(nil, "", 10)
	require.NoError(t, err)
	assert.NotNil(t, page.IDs)
	assert.Empty(t, page.IDs)
	assert.Empty(t, page.NextPageToken)
}

func TestPaginate_InvalidInput(t *testing.T) {
	ids := []string{"a"}

	for _, token := range []string{"x", "-1", "2"} {
		_, err := Paginate(ids, token, 1)
		assert.Error(t, err, token)
	}

	_, err := Paginate(ids, "", 0)
	assert.Error(t, err)
}
