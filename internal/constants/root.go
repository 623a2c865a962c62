package constants

import "time"

const (
	AppName            = "datebook"
	DefaultKeyringUser = "data-source"
	DefaultDataDir     = "~/.config/datebook"
	DefaultConfigFile  = "~/.config/datebook/config.yaml"
	DefaultAddr        = ":8080"
	EnvPrefix          = "DATEBOOK_"
	LogDirName         = "logs"
	Version            = "v0.3.0"

	// Persistence file names used by the JSON store
	CalendarDataFile = "calendarData.json"
	CalendarMapFile  = "calendarMap.json"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "datebook-"
	BackupFileSuffix = ".json"
	// DefaultBackupSchedule is a cron spec for snapshots taken while serving
	DefaultBackupSchedule = "@daily"

	// CodeWindow is the width of each range tried when generating a calendar code
	CodeWindow = 10000

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 10 * time.Second
)

// Entry attributes that can be projected from an entry list
const (
	AttrText  = "text"
	AttrStart = "start"
	AttrEnd   = "end"
)
