package config

import (
	"github.com/spf13/viper"
)

type (
	// Config is loaded once at startup and handed to every component
	// constructor. There is no ambient global lookup.
	Config struct {
		FolderStructure
		APKG
		HTML
		Media
		Logging
		UI
	}

	FolderStructure struct {
		Sanitize     bool
		AllowedChars string
		MaxDepth     int
	}
	APKG struct {
		IncludeScheduling bool
		IncludeMedia      bool
		IncludeTags       bool
		IncludeChildren   bool
	}
	HTML struct {
		SplitScreen       bool
		ShowFieldNames    bool
		IncludeChildCards bool
	}
	Media struct {
		Folder       string
		MaxImageSize int // longest edge in pixels; 0 disables resizing
		ImageQuality int
	}
	Logging struct {
		HierarchyLog bool
		AutoOpenLog  bool
	}
	UI struct {
		Progress bool
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("folder_structure.sanitize", true)
	v.SetDefault("folder_structure.allowed_chars", " -_")
	v.SetDefault("folder_structure.max_depth", 10)

	v.SetDefault("apkg.include_scheduling", true)
	v.SetDefault("apkg.include_media", true)
	v.SetDefault("apkg.include_tags", true)
	v.SetDefault("apkg.include_children", true)

	v.SetDefault("html.split_screen", true)
	v.SetDefault("html.show_field_names", true)
	v.SetDefault("html.include_child_cards", false)

	v.SetDefault("media.folder", "media")
	v.SetDefault("media.max_image_size", 1920)
	v.SetDefault("media.image_quality", 85)

	v.SetDefault("logging.hierarchy_log", true)
	v.SetDefault("logging.auto_open_log", false)

	v.SetDefault("ui.progress", true)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		FolderStructure: FolderStructure{
			Sanitize:     v.GetBool("folder_structure.sanitize"),
			AllowedChars: v.GetString("folder_structure.allowed_chars"),
			MaxDepth:     v.GetInt("folder_structure.max_depth"),
		},
		APKG: APKG{
			IncludeScheduling: v.GetBool("apkg.include_scheduling"),
			IncludeMedia:      v.GetBool("apkg.include_media"),
			IncludeTags:       v.GetBool("apkg.include_tags"),
			IncludeChildren:   v.GetBool("apkg.include_children"),
		},
		HTML: HTML{
			SplitScreen:       v.GetBool("html.split_screen"),
			ShowFieldNames:    v.GetBool("html.show_field_names"),
			IncludeChildCards: v.GetBool("html.include_child_cards"),
		},
		Media: Media{
			Folder:       v.GetString("media.folder"),
			MaxImageSize: v.GetInt("media.max_image_size"),
			ImageQuality: v.GetInt("media.image_quality"),
		},
		Logging: Logging{
			HierarchyLog: v.GetBool("logging.hierarchy_log"),
			AutoOpenLog:  v.GetBool("logging.auto_open_log"),
		},
		UI: UI{
			Progress: v.GetBool("ui.progress"),
		},
	}
}

// Default returns the documented defaults, the configuration of record
// when no file is present.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// Load reads the config file at path. Any failure (missing file,
// unparsable content) degrades to Default; the error is returned so the
// caller can log it, but the Config is always usable.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		return fromViper(v), nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Default(), err
	}
	return fromViper(v), nil
}
