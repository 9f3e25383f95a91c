package domain

import (
	"fmt"
	"strings"
)

type WatcherModeEnum int

const (
	Scheduled WatcherModeEnum = iota
	Stream
)

func (e WatcherModeEnum) String() string {
	return []string{"Scheduled", "Stream"}[e]
}

func ParseWatcherMode(mode string) (WatcherModeEnum, error) {
	switch strings.ToLower(mode) {
	case "scheduled":
		return Scheduled, nil
	case "stream", "":
		return Stream, nil
	}
	return Stream, fmt.Errorf("unknown watcher mode %q", mode)
}
