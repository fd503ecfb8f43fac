package async

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	Convey("Given an unset value", t, func() {
		v := New[int]()
		var got []string

		Convey("Callbacks queued before Set fire once, in order", func() {
			v.Get(func(n int) { got = append(got, fmt.Sprint("first:", n)) })
			v.Get(func(n int) { got = append(got, fmt.Sprint("second:", n)) })
			So(got, ShouldBeEmpty)
			So(v.Pending(), ShouldEqual, 2)

			So(v.Set(42), ShouldBeTrue)
			So(got, ShouldResemble, []string{"first:42", "second:42"})
			So(v.Pending(), ShouldEqual, 0)

			Convey("and a second Set in the same generation is ignored", func() {
				So(v.Set(7), ShouldBeFalse)
				So(got, ShouldHaveLength, 2)
				So(v.Peek().MustGet(), ShouldEqual, 42)
			})
		})

		Convey("Get after Set answers synchronously", func() {
			v.Set(5)
			var n int
			v.Get(func(x int) { n = x })
			So(n, ShouldEqual, 5)
		})

		Convey("Reset drops pending callbacks and starts a new generation", func() {
			fired := 0
			v.Get(func(int) { fired++ })
			v.Reset()
			So(v.Peek().IsAbsent(), ShouldBeTrue)

			v.Set(1)
			So(fired, ShouldEqual, 0)

			v.Reset()
			var n int
			v.Get(func(x int) { n = x })
			v.Set(9)
			So(n, ShouldEqual, 9)
			So(fired, ShouldEqual, 0)
		})

		Convey("A callback that resets stops the rest of its generation", func() {
			v.Get(func(int) { v.Reset() })
			v.Get(func(n int) { got = append(got, fmt.Sprint("stale:", n)) })

			So(v.Set(1), ShouldBeTrue)
			So(got, ShouldBeEmpty)
			So(v.Peek().IsPresent(), ShouldBeFalse)

			v.Get(func(n int) { got = append(got, fmt.Sprint("fresh:", n)) })
			So(v.Set(2), ShouldBeTrue)
			So(got, ShouldResemble, []string{"fresh:2"})
		})

		Convey("A nil callback is ignored", func() {
			v.Get(nil)
			So(v.Pending(), ShouldEqual, 0)
		})
	})
}
