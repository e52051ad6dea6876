package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, f.err
}

func reply(content string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: content}
}

func TestProposeSendsSystemAndUser(t *testing.T) {
	m := &fakeModel{reply: reply(`{"action":"BUY"}`)}
	out, err := New(m).Propose(context.Background(), "News: \"x\"")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"BUY"}`, out)

	require.Len(t, m.input, 2)
	assert.Equal(t, schema.System, m.input[0].Role)
	assert.Equal(t, schema.User, m.input[1].Role)
	assert.Equal(t, "News: \"x\"", m.input[1].Content)
}

func TestProposeErrors(t *testing.T) {
	_, err := New(&fakeModel{err: errors.New("quota")}).Propose(context.Background(), "p")
	assert.ErrorContains(t, err, "quota")

	_, err = New(&fakeModel{reply: reply("  ")}).Propose(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = New(&fakeModel{}).Propose(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(context.Background(), Config{Model: "gemini-2.0-flash"})
	assert.Error(t, err)
}
