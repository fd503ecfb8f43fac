package cmd

import (
	"errors"
	"testing"

	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/config"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/media"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseValue(t *testing.T) {
	Convey("Values take the type of the default", t, func() {
		v, err := parseValue(config.Default[key.PlayerVolume], []string{"35.5"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 35.5)

		v, err = parseValue(config.Default[key.PlayerLoop], []string{"true"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, true)

		v, err = parseValue(config.Default[key.MPVArgs], []string{"--no-video", "--mute"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []string{"--no-video", "--mute"})

		v, err = parseValue(config.Default[key.PlayerAttributes], []string{"hwdec=auto", "cache=yes"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, map[string]string{"hwdec": "auto", "cache": "yes"})

		_, err = parseValue(config.Default[key.PlayerVolume], []string{"loud"})
		So(err, ShouldNotBeNil)

		_, err = parseValue(config.Default[key.PlayerAttributes], []string{"hwdec"})
		So(err, ShouldNotBeNil)
	})
}

func TestSuggestions(t *testing.T) {
	Convey("Unknown config keys suggest the closest one", t, func() {
		err := errUnknownKey("player.volme")
		So(err.Error(), ShouldContainSubstring, key.PlayerVolume)
	})

	Convey("Unknown backends suggest similar ids", t, func() {
		err := errUnknownBackend("mplyer", []string{"mplayer", "vlc"})
		So(errors.Is(err, backend.ErrUnknownBackend), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "mplayer")
		So(err.Error(), ShouldNotContainSubstring, "vlc")

		err = errUnknownBackend("zzz", []string{"mplayer"})
		So(errors.Is(err, backend.ErrUnknownBackend), ShouldBeTrue)
		So(err.Error(), ShouldNotContainSubstring, "did you mean")
	})
}

func TestDescribe(t *testing.T) {
	Convey("Backends with no priority are marked as forced only", t, func() {
		d := &backend.Descriptor{ID: "system", Name: "System default", Description: "The default application"}
		So(describeBackend(d, 0, 40), ShouldContainSubstring, "forced only")
		So(describeBackend(d, 10, 40), ShouldContainSubstring, "priority 10")
		So(describeBackend(d, 10, 40), ShouldContainSubstring, "  The default application")
	})

	Convey("Unplayable files have no backend", t, func() {
		f := media.New("notes.txt", nil)
		So(describeFile(f, false), ShouldContainSubstring, "none")
	})
}
