package flagset

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFlagSet(t *testing.T) {
	Convey("Given an empty flag set", t, func() {
		f := New()
		So(f.IsSet(), ShouldBeFalse)

		Convey("It stays set until every owner releases", func() {
			f.SetFlag("busy", true)
			f.SetFlag("bigplay", true)
			f.SetFlag("busy", false)
			So(f.IsSet(), ShouldBeTrue)
			So(f.Holds("bigplay"), ShouldBeTrue)
			So(f.Holds("busy"), ShouldBeFalse)

			f.SetFlag("bigplay", false)
			So(f.IsSet(), ShouldBeFalse)
		})

		Convey("Reusing an owner never consumes a second bit", func() {
			for i := 0; i < 10; i++ {
				f.SetFlag("loading", i%2 == 0)
			}
			So(f.Owners(), ShouldEqual, 1)
			So(f.IsSet(), ShouldBeFalse)
		})

		Convey("Clearing an unknown owner registers it without setting anything", func() {
			f.SetFlag("ghost", false)
			So(f.Owners(), ShouldEqual, 1)
			So(f.IsSet(), ShouldBeFalse)
		})

		Convey("The zero value is usable", func() {
			var z FlagSet
			z.SetFlag("a", true)
			So(z.IsSet(), ShouldBeTrue)
		})

		Convey("Too many owners panics", func() {
			for i := 0; i < MaxOwners; i++ {
				f.SetFlag(fmt.Sprint(i), true)
			}
			So(func() { f.SetFlag("one-too-many", true) }, ShouldPanic)
		})
	})
}
