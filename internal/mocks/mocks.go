// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/extraction"
)

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate provides a mock function for LLM calls.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Close() error { return m.Called().Error(0) }

// -- Extractor Mock --

// MockExtractor mocks extraction.Extractor. Expectations match on the
// instruction name and the free text.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, in extraction.Instruction, text string) (extraction.Fields, error) {
	args := m.Called(ctx, in.Name, text)
	var fields extraction.Fields
	if f := args.Get(0); f != nil {
		fields = f.(extraction.Fields)
	}
	return fields, args.Error(1)
}

// -- Page Mock --

// MockPage implements the schemas.Page interface for testing.
type MockPage struct {
	mock.Mock
}

var _ schemas.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockPage) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}
func (m *MockPage) ClickText(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}
func (m *MockPage) WaitVisible(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}
func (m *MockPage) WaitText(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}
func (m *MockPage) WaitAny(ctx context.Context, selector string, texts ...string) (int, error) {
	args := m.Called(ctx, selector, texts)
	return args.Int(0), args.Error(1)
}
func (m *MockPage) Text(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}
func (m *MockPage) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	args := m.Called(ctx, selector, name)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *MockPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}
func (m *MockPage) Clear(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}
func (m *MockPage) TypeText(ctx context.Context, selector, text string, delay time.Duration) error {
	return m.Called(ctx, selector, text, delay).Error(0)
}
func (m *MockPage) TableRows(ctx context.Context, rowSelector string) ([][]string, error) {
	args := m.Called(ctx, rowSelector)
	var rows [][]string
	if r := args.Get(0); r != nil {
		rows = r.([][]string)
	}
	return rows, args.Error(1)
}
func (m *MockPage) FillByLabel(ctx context.Context, label, path, value string, delay time.Duration) error {
	return m.Called(ctx, label, path, value, delay).Error(0)
}
func (m *MockPage) SelectByLabel(ctx context.Context, label, option string) error {
	return m.Called(ctx, label, option).Error(0)
}
func (m *MockPage) SelectIndex(ctx context.Context, selector string, index int) error {
	return m.Called(ctx, selector, index).Error(0)
}
func (m *MockPage) Sleep(ctx context.Context, d time.Duration) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockPage) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }
