package model

import "fmt"

// Channel identifies the screenshot layout a token stream came from.
type Channel string

// Supported channels.
const (
	ChannelHuabao  Channel = "huabao"
	ChannelHaitong Channel = "haitong"
	ChannelFundE   Channel = "fund_e"
	// ChannelOFX tags records imported from OFX statements rather than screenshots.
	ChannelOFX Channel = "ofx"
	// ChannelCash tags the manually added cash holding.
	ChannelCash Channel = "cash"

	// ChannelUndetermined is returned when no layout could be recognized.
	ChannelUndetermined Channel = ""
	// ChannelAuto asks the orchestrator to detect the channel.
	ChannelAuto Channel = "auto"
)

// ScreenshotChannels lists the channels that have a token parser, in detector priority order.
var ScreenshotChannels = []Channel{ChannelHuabao, ChannelHaitong, ChannelFundE}

// ParseChannel converts a user-supplied channel name to a Channel.
// Accepted values are "auto" and the screenshot channels.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelAuto, "":
		return ChannelAuto, nil
	case ChannelHuabao, ChannelHaitong, ChannelFundE:
		return Channel(s), nil
	}
	return ChannelUndetermined, fmt.Errorf("unknown channel %q (want auto, huabao, haitong or fund_e)", s)
}

// Label returns a human readable broker name.
func (c Channel) Label() string {
	switch c {
	case ChannelHuabao:
		return "华宝证券"
	case ChannelHaitong:
		return "海通证券"
	case ChannelFundE:
		return "基金e账户"
	case ChannelOFX:
		return "OFX"
	case ChannelCash:
		return "现金"
	case ChannelUndetermined:
		return "undetermined"
	}
	return string(c)
}
