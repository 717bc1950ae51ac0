package tui

import "github.com/GetMystAdmin/hot-pot/internal/pipeline"

type navigatedMsg struct {
	result pipeline.Result
}

type noticeMsg struct {
	notice pipeline.Notice
}

type errMsg struct {
	err error
}

type updateMsg struct {
	version string
}
