// Package boot turns a Config into an open Session for the emola binaries.
package boot

import (
	"github.com/rphilander/emola"
	"github.com/rphilander/emola/sqlitelog"
)

// OpenLog picks the definition log: SQLite when DBPath is set, a text file
// when LogPath is set, otherwise memory only.
func OpenLog(cfg emola.Config) (emola.Log, error) {
	switch {
	case cfg.DBPath != "":
		l, err := sqlitelog.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case cfg.LogPath != "":
		l, err := emola.OpenFileLog(cfg.LogPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return &emola.MemLog{}, nil
	}
}

// OpenSession opens the configured log and replays it into a new session.
func OpenSession(cfg emola.Config) (*emola.Session, error) {
	l, err := OpenLog(cfg)
	if err != nil {
		return nil, err
	}
	s, err := emola.NewSession(emola.SessionOptions{
		Log:       l,
		MaxDepth:  cfg.MaxDepth,
		MaxTraces: cfg.MaxTraces,
	})
	if err != nil {
		l.Close()
		return nil, err
	}
	return s, nil
}
