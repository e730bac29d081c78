package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

// Topic names a live notification stream. Every topic lives under the
// "notifications." prefix so one pattern subscription covers all of them.
type Topic string

const topicPrefix = "notifications."

func ClientTopic(clientID int64) Topic {
	return Topic(fmt.Sprintf("%sclient.%d", topicPrefix, clientID))
}

func TherapistTopic(therapistID int64) Topic {
	return Topic(fmt.Sprintf("%stherapist.%d", topicPrefix, therapistID))
}

// OperatorTopic is shared by every operator connection.
func OperatorTopic() Topic {
	return Topic(topicPrefix + "operator")
}

// TopicFor maps a notification's audience and recipient to its topic.
func TopicFor(audience models.Audience, recipientID int64) Topic {
	switch audience {
	case models.AudienceTherapist:
		return TherapistTopic(recipientID)
	case models.AudienceOperator:
		return OperatorTopic()
	default:
		return ClientTopic(recipientID)
	}
}

// Parse splits a topic into its audience and recipient id. The operator topic
// has no recipient and reports 0.
func (t Topic) Parse() (models.Audience, int64, bool) {
	rest, ok := strings.CutPrefix(string(t), topicPrefix)
	if !ok {
		return "", 0, false
	}
	if rest == string(models.AudienceOperator) {
		return models.AudienceOperator, 0, true
	}
	audience, id, ok := strings.Cut(rest, ".")
	if !ok {
		return "", 0, false
	}
	recipientID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", 0, false
	}
	switch models.Audience(audience) {
	case models.AudienceClient, models.AudienceTherapist:
		return models.Audience(audience), recipientID, true
	}
	return "", 0, false
}
