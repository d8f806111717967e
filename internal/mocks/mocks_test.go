package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/extraction"
)

func TestMockLLMClient_CancelledContext(t *testing.T) {
	m := new(MockLLMClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, schemas.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestMockExtractor_MatchesOnInstructionName(t *testing.T) {
	m := new(MockExtractor)
	m.On("Extract", mock.Anything, "name", "Jane Doe").Return(extraction.Fields{"first_name": "Jane"}, nil)
	m.On("Extract", mock.Anything, "date", mock.Anything).Return(nil, errors.New("no date"))

	f, err := m.Extract(context.Background(), extraction.NameInstruction, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane", f["first_name"])

	f, err = m.Extract(context.Background(), extraction.DateInstruction, "whenever")
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestMockPage_TableRows(t *testing.T) {
	m := new(MockPage)
	m.On("TableRows", mock.Anything, "table tbody tr").Return(nil, nil).Once()
	m.On("TableRows", mock.Anything, "table tbody tr").Return([][]string{{"Phil"}}, nil).Once()

	rows, err := m.TableRows(context.Background(), "table tbody tr")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = m.TableRows(context.Background(), "table tbody tr")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Phil"}}, rows)
	m.AssertExpectations(t)
}
