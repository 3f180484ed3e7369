// Package bus provides an asynchronous message queue for communication between
// the channels (telegram, cron, cli) and the agent loop. Inbound messages carry
// user or scheduler prompts; outbound messages carry assistant replies and
// notifications back to their originating channel.
package bus

import (
	"encoding/json"
	"time"
)

// ChannelType identifies the origin or destination channel of a message.
type ChannelType string

const (
	ChannelTypeTelegram ChannelType = "telegram"
	ChannelTypeCron     ChannelType = "cron"
	ChannelTypeCLI      ChannelType = "cli"
)

// InboundMessage represents a prompt received from a channel.
type InboundMessage struct {
	ChannelType ChannelType    `json:"channel_type"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// OutboundMessage represents an assistant reply or notification to be
// delivered to a channel.
type OutboundMessage struct {
	ChannelType ChannelType    `json:"channel_type"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewInboundMessage creates an inbound message stamped with the current time.
func NewInboundMessage(channel ChannelType, userID, sessionID, content string, metadata map[string]any) *InboundMessage {
	return &InboundMessage{
		ChannelType: channel,
		UserID:      userID,
		SessionID:   sessionID,
		Content:     content,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}

// NewOutboundMessage creates an outbound message stamped with the current time.
func NewOutboundMessage(channel ChannelType, userID, sessionID, content string, metadata map[string]any) *OutboundMessage {
	return &OutboundMessage{
		ChannelType: channel,
		UserID:      userID,
		SessionID:   sessionID,
		Content:     content,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}

// ToJSON serializes the message for transport or storage.
func (m *InboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON serializes the message for transport or storage.
func (m *OutboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
