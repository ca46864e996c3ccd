package services

import (
	"sort"
	"strings"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
)

const conversationIDSeparator = "_"

// unknownUserName is the terminal fallback when neither a live profile nor
// the denormalized copy yields a usable display name.
const unknownUserName = "Unknown User"

// legacyNamePlaceholder appears on old message rows written before recipient
// names were resolved at send time; it counts as absent.
const legacyNamePlaceholder = "Unknown Recipient"

// DeriveConversationID maps an unordered participant pair to its canonical
// thread key: the two ids sorted lexicographically, joined with an
// underscore. Both parties compute the same value without a lookup, so the
// function is total on purpose — rejecting a == b is the caller's job.
func DeriveConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + conversationIDSeparator + b
}

// ResolveDisplayName applies the ordered fallback chain for labelling a
// conversation partner: live profile name, then the denormalized copy
// stored on the message, then a fixed placeholder. Denormalized copies
// equal to the raw id or the legacy placeholder count as absent.
func ResolveDisplayName(profileName *string, denormalized string, partnerID string) string {
	if profileName != nil {
		if name := strings.TrimSpace(*profileName); name != "" {
			return name
		}
	}

	name := strings.TrimSpace(denormalized)
	if name != "" && name != legacyNamePlaceholder && name != partnerID {
		return name
	}

	return unknownUserName
}

// AssembleThreads regroups a user's full message set into conversation
// summaries: latest message as preview, per-thread unread count, partner
// resolved through the display-name chain. Output is ordered by preview
// timestamp descending; ties keep conversation-id order so the result is
// deterministic for a fixed input set.
func AssembleThreads(
	userID string,
	messages []models.Message,
	identities map[string]models.ProfileIdentity,
) []models.ConversationSummary {
	groups := make(map[string][]models.Message)
	for _, message := range messages {
		groups[message.ConversationID] = append(groups[message.ConversationID], message)
	}

	conversationIDs := make([]string, 0, len(groups))
	for conversationID := range groups {
		conversationIDs = append(conversationIDs, conversationID)
	}
	sort.Strings(conversationIDs)

	summaries := make([]models.ConversationSummary, 0, len(groups))
	for _, conversationID := range conversationIDs {
		thread := groups[conversationID]
		sort.SliceStable(thread, func(i, j int) bool {
			if thread[i].CreatedAt.Equal(thread[j].CreatedAt) {
				return thread[i].ID < thread[j].ID
			}
			return thread[i].CreatedAt.Before(thread[j].CreatedAt)
		})

		latest := thread[len(thread)-1]

		partnerID := latest.SenderID
		denormalized := latest.SenderName
		if latest.SenderID == userID {
			partnerID = latest.RecipientID
			denormalized = latest.RecipientName
		}

		unread := 0
		for _, message := range thread {
			if message.RecipientID == userID && !message.Read {
				unread++
			}
		}

		summary := models.ConversationSummary{
			ConversationID: conversationID,
			PartnerID:      partnerID,
			UnreadCount:    unread,
		}

		identity, hasProfile := identities[partnerID]
		if hasProfile {
			summary.PartnerName = ResolveDisplayName(identity.FullName, denormalized, partnerID)
			if identity.AvatarURL != nil {
				summary.PartnerAvatarURL = *identity.AvatarURL
			}
		} else {
			summary.PartnerName = ResolveDisplayName(nil, denormalized, partnerID)
		}

		latestCopy := latest
		summary.LastMessage = &latestCopy

		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})

	return summaries
}
