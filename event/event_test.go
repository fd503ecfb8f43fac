package event

import (
	"testing"

	"github.com/minplayer/minplayer/sched"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatcher(t *testing.T) {
	Convey("Namespaced names address their bare form and vice versa", t, func() {
		So(newMatcher("playing").Match(newMatcher("playing")), ShouldBeTrue)
		So(newMatcher("playing").Match(newMatcher("media:playing")), ShouldBeTrue)
		So(newMatcher("media:playing").Match(newMatcher("playing")), ShouldBeTrue)
		So(newMatcher("media:playing").Match(newMatcher("other:playing")), ShouldBeFalse)
		So(newMatcher("playing").Match(newMatcher("media:pause")), ShouldBeFalse)
		So(newMatcher("play").Match(newMatcher("media:playing")), ShouldBeFalse)
		So(Base("a:b:c"), ShouldEqual, "c")
		So(Base("c"), ShouldEqual, "c")
	})
}

func TestPlugin(t *testing.T) {
	Convey("Given a plugin on a manual scheduler", t, func() {
		clock := sched.NewManual()
		p := New(NewRegistry(), clock, "player1", "media")

		var got []string
		record := func(prefix string) Handler {
			return func(e Event) {
				got = append(got, prefix+":"+e.Name)
			}
		}

		Convey("Bind without a name or handler is refused", func() {
			So(p.Bind("", record("a")), ShouldBeFalse)
			So(p.Bind("ready", nil), ShouldBeFalse)
		})

		Convey("Trigger reaches subscribers of the bare and the namespaced name", func() {
			p.Bind("playing", record("bare"))
			p.Bind("media:playing", record("ns"))
			p.Trigger("media:playing", nil)
			p.Trigger("playing", nil)
			So(got, ShouldResemble, []string{
				"bare:media:playing", "ns:media:playing",
				"bare:playing", "ns:playing",
			})
		})

		Convey("Late subscribers get the last payload once", func() {
			p.Bind("ready", record("early"))
			p.Trigger("ready", 1)
			p.Trigger("ready", 2)

			var payload any
			p.Bind("ready", func(e Event) { payload = e.Data })
			So(payload, ShouldEqual, 2)
			So(got, ShouldResemble, []string{"early:ready", "early:ready"})
		})

		Convey("Replay needs the exact name", func() {
			p.Trigger("media:ready", nil)
			p.Bind("ready", record("late"))
			So(got, ShouldBeEmpty)
		})

		Convey("Untracked triggers are not replayed", func() {
			p.TriggerNoQueue("timeupdate", 1)
			p.Bind("timeupdate", record("late"))
			So(got, ShouldBeEmpty)
		})

		Convey("Bound data is handed to the handler", func() {
			var bound any
			p.BindData("pause", "ctx", func(e Event) { bound = e.Bound })
			p.Trigger("pause", nil)
			So(bound, ShouldEqual, "ctx")
		})

		Convey("Unbind removes one name or everything", func() {
			p.Bind("a", record("x"))
			p.Bind("b", record("x"))
			p.Unbind("a")
			p.Trigger("a", nil)
			p.Trigger("b", nil)
			So(got, ShouldResemble, []string{"x:b"})

			p.Unbind()
			p.Trigger("b", nil)
			So(got, ShouldHaveLength, 1)
		})

		Convey("Unbind during a trigger is deferred", func() {
			p.Bind("tick", func(e Event) {
				got = append(got, "first")
				p.Unbind("tick")
			})
			p.Bind("tick", record("second"))

			p.Trigger("tick", nil)
			So(got, ShouldResemble, []string{"first", "second:tick"})
			So(clock.Pending(), ShouldEqual, 1)

			clock.Advance(UnbindRetryDelay)
			p.Trigger("tick", nil)
			So(got, ShouldHaveLength, 2)
		})

		Convey("A destroyed plugin ignores bind and trigger", func() {
			p.Bind("ended", record("x"))
			p.Destroy()
			p.Destroy()
			So(p.State(), ShouldEqual, Destroyed)
			So(p.Bind("ended", record("y")), ShouldBeFalse)
			p.Trigger("ended", nil)
			So(got, ShouldBeEmpty)
		})

		Convey("Destroying from a handler stops delivery", func() {
			p.Bind("ended", func(Event) { p.Destroy() })
			p.Bind("ended", record("after"))
			p.Trigger("ended", nil)
			So(got, ShouldBeEmpty)
		})

		Convey("Ready is replayed to late subscribers", func() {
			So(p.IsReady(), ShouldBeFalse)
			p.Ready()
			So(p.IsReady(), ShouldBeTrue)

			var target *Plugin
			p.Bind("ready", func(e Event) { target = e.Data.(*Plugin) })
			So(target, ShouldPointTo, p)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry", t, func() {
		clock := sched.NewManual()
		r := NewRegistry()
		applied := 0
		count := func(Event) { applied++ }

		Convey("A queued binding applies once to a matching plugin only", func() {
			So(r.AddQueue(Queued{ID: "p1", Plugin: "media", Event: "ready", Handler: count}), ShouldBeTrue)

			other := New(r, clock, "p2", "media")
			wrong := New(r, clock, "p1", "controller")
			media := New(r, clock, "p1", "media")

			other.Ready()
			wrong.Ready()
			media.Ready()
			So(applied, ShouldEqual, 1)

			// registering the same instance again must not bind twice
			r.register(media)
			media.Trigger("ready", media)
			So(applied, ShouldEqual, 2)
			So(r.Get("p1", "media"), ShouldHaveLength, 1)
			So(r.Plugins(), ShouldHaveLength, 3)
		})

		Convey("Filters narrow by id, by name, or not at all", func() {
			var byID, byName, all int
			r.AddQueue(Queued{ID: "p1", Event: "x", Handler: func(Event) { byID++ }})
			r.AddQueue(Queued{Plugin: "media", Event: "x", Handler: func(Event) { byName++ }})
			r.AddQueue(Queued{Event: "x", Handler: func(Event) { all++ }})

			for _, p := range []*Plugin{
				New(r, clock, "p1", "media"),
				New(r, clock, "p1", "controller"),
				New(r, clock, "p2", "media"),
			} {
				p.Trigger("x", nil)
			}

			So(byID, ShouldEqual, 2)
			So(byName, ShouldEqual, 2)
			So(all, ShouldEqual, 3)
		})

		Convey("A queued binding reaches an instance that already fired", func() {
			var payload any
			r.AddQueue(Queued{ID: "p1", Plugin: "media", Event: "loadstart", Handler: func(e Event) { payload = e.Data }})
			p := New(r, clock, "p1", "media")
			p.Trigger("loadstart", "go")
			So(payload, ShouldEqual, "go")
		})

		Convey("When binds existing plugins and future ones", func() {
			first := New(r, clock, "p1", "media")
			So(first.When("media", "playing", count), ShouldBeTrue)

			first.Trigger("playing", nil)
			So(applied, ShouldEqual, 1)

			first.Destroy()
			second := New(r, clock, "p1", "media")
			second.Trigger("playing", nil)
			So(applied, ShouldEqual, 2)
		})

		Convey("Lookups of unknown ids are empty", func() {
			New(r, clock, "p1", "media")
			So(r.Get("nope", ""), ShouldBeEmpty)
			So(r.Get("p1", "media"), ShouldHaveLength, 1)
			So(r.Plugins(), ShouldHaveLength, 1)
		})

		Convey("Destroyed plugins leave the registry", func() {
			p := New(r, clock, "p1", "media")
			p.Destroy()
			So(r.Get("p1", ""), ShouldBeEmpty)
		})

		Convey("Queue entries without a handler are refused", func() {
			So(r.AddQueue(Queued{Event: "x"}), ShouldBeFalse)
			So(r.When("", "", "x", nil), ShouldBeFalse)
			So(r.Pending(), ShouldEqual, 0)
		})
	})
}
