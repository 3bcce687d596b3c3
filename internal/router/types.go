package router

import "github.com/linusssssai/feishu-bot-vercel/pkg/feishu"

// Route is the pipeline branch a message takes.
type Route string

const (
	RouteUnsupported        Route = "unsupported"
	RouteImageUnderstanding Route = "image_understanding"
	RouteImageSynthesis     Route = "image_synthesis"
	RouteTableLink          Route = "table_link"
	RouteMedia              Route = "media"
	RouteTable              Route = "table"
	RouteDefault            Route = "default"
)

// Decision is the routing outcome for one message.
type Decision struct {
	Route Route
	// Link is set for RouteTableLink.
	Link feishu.BitableLink
}

// MediaIntent is the AI classification used by RouteMedia and RouteDefault.
type MediaIntent string

const (
	IntentCasual          MediaIntent = "casual"
	IntentImageGeneration MediaIntent = "image_generation"
)

// ClassifierOutput is the structured response of the intent classifier
type ClassifierOutput struct {
	Intent MediaIntent `json:"intent"`
}

// Vocabulary holds the keyword lists that drive routing.
type Vocabulary struct {
	Version int      `yaml:"version"`
	Media   []string `yaml:"media"`
	Table   []string `yaml:"table"`
}
