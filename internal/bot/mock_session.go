package bot

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// mockSession implements session for testing. It records registered
// commands, interaction responses, and channel sends, and lets tests fail
// individual calls.
type mockSession struct {
	mu sync.Mutex

	opened bool
	closed bool

	commands  []*discordgo.ApplicationCommand
	responses []*discordgo.InteractionResponse
	sent      []sentMessage

	dmCounter int
	dmByUser  map[string]string

	failOpen       error
	failDM         error
	failSend       error
	failSendAfter  int // failSend kicks in once this many sends happened
	failRespond    error
	failRegistered error
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func newMockSession() *mockSession {
	return &mockSession{dmByUser: make(map[string]string)}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpen != nil {
		return m.failOpen
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSession) AddHandler(interface{}) func() { return func() {} }

func (m *mockSession) ApplicationCommandBulkOverwrite(_, _ string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRegistered != nil {
		return nil, m.failRegistered
	}
	m.commands = commands
	return commands, nil
}

func (m *mockSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRespond != nil {
		return m.failRespond
	}
	m.responses = append(m.responses, resp)
	return nil
}

func (m *mockSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDM != nil {
		return nil, m.failDM
	}
	id, ok := m.dmByUser[recipientID]
	if !ok {
		m.dmCounter++
		id = fmt.Sprintf("dm-%d", m.dmCounter)
		m.dmByUser[recipientID] = id
	}
	return &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeDM}, nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend != nil && len(m.sent) >= m.failSendAfter {
		return nil, m.failSend
	}
	m.sent = append(m.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", len(m.sent)), ChannelID: channelID}, nil
}

// --- Test helpers ---

func (m *mockSession) allSent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockSession) lastResponse() *discordgo.InteractionResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil
	}
	return m.responses[len(m.responses)-1]
}
