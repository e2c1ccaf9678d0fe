package service

import (
	"strconv"

	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_messages_appended_total",
			Help: "Total number of messages appended to the conversation log",
		},
		[]string{"type", "system"},
	)

	conversationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_conversations_created_total",
			Help: "Total number of conversations created",
		},
		[]string{"type"},
	)

	accessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_access_denied_total",
			Help: "Total number of denied conversation actions",
		},
		[]string{"type", "action"},
	)
)

func recordAppend(msg *domain.Message) {
	messagesAppendedTotal.WithLabelValues(string(msg.Type), strconv.FormatBool(msg.IsSystem)).Inc()
}

func recordCreated(t domain.ConversationType) {
	conversationsCreatedTotal.WithLabelValues(string(t)).Inc()
}

func recordDenied(t domain.ConversationType, action domain.Action) {
	accessDeniedTotal.WithLabelValues(string(t), string(action)).Inc()
}
