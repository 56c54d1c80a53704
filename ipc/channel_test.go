package ipc

import "testing"

func TestChannel_Pattern(t *testing.T) {
	tests := []struct {
		channel  Channel
		expected Pattern
	}{
		{ChannelCloseWindow, PatternCommand},
		{ChannelMinimizeWindow, PatternCommand},
		{ChannelMaximizeWindow, PatternCommand},
		{ChannelIsWindowMaximized, PatternRequest},
		{ChannelMaximizeWindowBack, PatternBroadcast},
		{ChannelSetThemeMode, PatternRequest},
		{ChannelGetThemeMode, PatternRequest},
		{ChannelIsDarkTheme, PatternRequest},
		{ChannelThemeModeUpdated, PatternBroadcast},
		{ChannelLogDebug, PatternCommand},
		{ChannelLogInfo, PatternCommand},
		{ChannelLogWarn, PatternCommand},
		{ChannelLogError, PatternCommand},
		{Channel("open-devtools"), PatternUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			if got := tt.channel.Pattern(); got != tt.expected {
				t.Errorf("Channel.Pattern() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestChannel_MaximizeBackName(t *testing.T) {
	if ChannelMaximizeWindowBack != "maximize-windowback" {
		t.Errorf("ChannelMaximizeWindowBack = %q, want %q", ChannelMaximizeWindowBack, "maximize-windowback")
	}
}

func TestPattern_String(t *testing.T) {
	tests := []struct {
		pattern  Pattern
		expected string
	}{
		{PatternCommand, "command"},
		{PatternRequest, "request"},
		{PatternBroadcast, "broadcast"},
		{PatternUnknown, "unknown"},
		{Pattern(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.pattern.String(); got != tt.expected {
				t.Errorf("Pattern.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestChannels_ClosedSet(t *testing.T) {
	all := Channels()
	if len(all) != 13 {
		t.Fatalf("Channels() returned %d channels, want 13", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] >= all[i] {
			t.Errorf("Channels() not sorted at %d: %q >= %q", i, all[i-1], all[i])
		}
	}

	counts := map[Pattern]int{}
	for _, c := range all {
		if !c.Valid() {
			t.Errorf("%q listed but not valid", c)
		}
		counts[c.Pattern()]++
	}
	if counts[PatternCommand] != 7 || counts[PatternRequest] != 4 || counts[PatternBroadcast] != 2 {
		t.Errorf("pattern counts = %v, want 7 commands, 4 requests, 2 broadcasts", counts)
	}

	if got := ChannelsFor(PatternBroadcast); len(got) != 2 {
		t.Errorf("ChannelsFor(broadcast) = %v, want 2 channels", got)
	}
}
