package queue

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pylon/internal/domain/model"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory queue", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			ok := q.Enqueue(ctx, model.Game{ID: "g1"})

			Convey("Then the game is accepted", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, model.Game{ID: "g1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, model.Game{ID: "g2"}), ShouldBeTrue)
			ok := q.Enqueue(ctx, model.Game{ID: "g3"})

			Convey("Then enqueue reports backpressure without blocking", func() {
				So(ok, ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When dequeuing", func() {
			So(q.Enqueue(ctx, model.Game{ID: "g1"}), ShouldBeTrue)
			g := <-q.Dequeue(ctx)

			Convey("Then games come out in FIFO order", func() {
				So(g.ID, ShouldEqual, "g1")
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue is refused and the channel drains", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, model.Game{ID: "late"}), ShouldBeFalse)

				_, open := <-q.Dequeue(ctx)
				So(open, ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestQueueDefaultCapacity(t *testing.T) {
	Convey("Given a queue without options", t, func() {
		q := NewInMemoryQueue()

		Convey("Then the default capacity applies", func() {
			So(q.capacity, ShouldEqual, defaultQueueCapacity)
		})
	})

	Convey("Given a non-positive capacity option", t, func() {
		q := NewInMemoryQueue(WithCapacity(0))

		Convey("Then the default is kept", func() {
			So(q.capacity, ShouldEqual, defaultQueueCapacity)
		})
	})
}
