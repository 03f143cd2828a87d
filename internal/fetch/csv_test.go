package fetch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "item,trade,cost\nfooting,concrete,185.50\nstud,wood,4.25\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"item", "trade", "cost"}, rows[0])
	assert.Equal(t, []string{"footing", "concrete", "185.50"}, rows[1])
	assert.Equal(t, []string{"stud", "wood", "4.25"}, rows[2])
}

func TestStreamCSV_PipeDelimited(t *testing.T) {
	input := "item|qty|unit\nfooting|12|CY\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: '|',
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"item", "qty", "unit"}, rows[0])
	assert.Equal(t, []string{"footing", "12", "CY"}, rows[1])
}

func TestStreamCSV_WithHeader(t *testing.T) {
	input := "item,qty\nfooting,12\nslab,30\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"footing", "12"}, rows[0])
	assert.Equal(t, []string{"slab", "30"}, rows[1])

	header := <-headerCh
	assert.Equal(t, []string{"item", "qty"}, header)
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	input := " a , b \n 1 , 2 \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		TrimSpace: true,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestStreamCSV_Comment(t *testing.T) {
	input := "# vendor export 2026-02\nitem,cost\nfooting,185.50\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Comment: '#',
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"item", "cost"}, rows[0])
}

func TestStreamCSV_LazyQuotes(t *testing.T) {
	input := `item,note
stud,"8ft "precut" grade",
`
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		LazyQuotes: true,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStreamCSV_Latin1Charset(t *testing.T) {
	// "Büro" encoded as latin1: 0xFC is u-umlaut.
	input := []byte{'i', 't', 'e', 'm', '\n', 'B', 0xFC, 'r', 'o', '\n'}
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(string(input)), CSVOptions{
		Charset: "latin1",
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Büro"}, rows[1])
}

func TestStreamCSV_UnsupportedCharset(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a\n"), CSVOptions{
		Charset: "klingon-8",
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
	assert.Empty(t, rows)
}

func TestStreamCSV_Empty(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStreamCSV_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		sb.WriteString("footing,concrete,CY\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})

	count := 0
	for range rowCh {
		count++
		if count >= 5 {
			cancel()
			break
		}
	}

	for range rowCh {
	}

	var gotErr error
	for err := range errCh {
		if err != nil {
			gotErr = err
		}
	}
	if gotErr != nil {
		assert.Contains(t, gotErr.Error(), "context cancelled")
	}
	cancel()
}

func TestReadCSV_HeaderAndRows(t *testing.T) {
	input := "item,qty,unit\nfooting,12,CY\nslab,30,SF\n"
	header, rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "qty", "unit"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"footing", "12", "CY"}, rows[0])
}

func TestReadCSV_NoHeader(t *testing.T) {
	header, rows, err := ReadCSV(context.Background(), strings.NewReader("1,2\n3,4\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Nil(t, header)
	require.Len(t, rows, 2)
}

func TestReadCSV_VariableFieldCounts(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"
	_, rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 4)
}
