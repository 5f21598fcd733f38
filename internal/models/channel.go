package models

// ChannelSummary represents the channel block of the showcase payload
type ChannelSummary struct {
	Name            string `json:"name"`
	TotalViews      int64  `json:"totalViews"`
	SubscriberCount int64  `json:"subscriberCount"`
	VideoCount      int64  `json:"videoCount"`
}
