package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestAPI(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs after reset", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})

		Convey("GacheFs writes through the active backend", func() {
			mem := afero.NewMemMapFs()
			Use(mem)

			var fs GacheFs
			So(fs.MkdirAll("/cache", 0o755), ShouldBeNil)
			f, err := fs.OpenFile("/cache/a.json", os.O_WRONLY|os.O_CREATE, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			exists, err := afero.Exists(mem, "/cache/a.json")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})
	})
}
