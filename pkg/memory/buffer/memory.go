package buffer

import (
	"fmt"
	"go-nexus/pkg/models"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCapacity = 20
	summaryMessages = 5
	summaryChars    = 100
)

// Conversation is a bounded message history. The oldest message is evicted first.
type Conversation struct {
	mu       sync.RWMutex
	capacity int
	items    []models.Message
}

func New(capacity int) *Conversation {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Conversation{
		capacity: capacity,
		items:    make([]models.Message, 0, capacity),
	}
}

func (c *Conversation) Add(role models.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, models.Message{Role: role, Content: content, Timestamp: time.Now()})
	if over := len(c.items) - c.capacity; over > 0 {
		c.items = append(c.items[:0:0], c.items[over:]...)
	}
}

func (c *Conversation) Messages() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Message, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Conversation) Capacity() int {
	return c.capacity
}

func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.items[:0]
}

// Summary renders the last few messages as "ROLE: content", each cut to 100 characters.
func (c *Conversation) Summary() string {
	msgs := c.Messages()
	if len(msgs) == 0 {
		return "No conversation history"
	}
	if len(msgs) > summaryMessages {
		msgs = msgs[len(msgs)-summaryMessages:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		if r := []rune(content); len(r) > summaryChars {
			content = string(r[:summaryChars]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), content))
	}
	return strings.Join(lines, "\n")
}
