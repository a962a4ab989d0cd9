package websock

import (
	"sync"
	"time"

	"github.com/eapache/queue/v2"
)

// outFrame is one encoded frame awaiting transport write. last marks the
// close frame; the pump exits after flushing it.
type outFrame struct {
	data []byte
	last bool
}

// outQueue is the FIFO between the run loop and the write pump. The run
// loop is the only producer, the pump the only consumer; the queue itself
// never blocks either side.
type outQueue struct {
	mu sync.Mutex
	q  *queue.Queue[*outFrame]
}

func newOutQueue() *outQueue {
	return &outQueue{q: queue.New[*outFrame]()}
}

func (o *outQueue) add(f *outFrame) {
	o.mu.Lock()
	o.q.Add(f)
	o.mu.Unlock()
}

// pop removes and returns the oldest frame, or nil when empty.
func (o *outQueue) pop() *outFrame {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.q.Length() == 0 {
		return nil
	}
	return o.q.Remove()
}

func (o *outQueue) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.q.Length()
}

// queueFrame hands an encoded frame to the write pump. Only the run loop
// calls it, so the queue has a single producer.
func (c *Conn) queueFrame(data []byte, last bool) {
	c.outq.add(&outFrame{data: data, last: last})
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// writePump owns transport writes. It drains the queue in arrival order and
// exits after a write error, after flushing the frame marked last, or at
// teardown.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}
		for {
			f := c.outq.pop()
			if f == nil {
				break
			}
			if err := c.writeFrame(f.data); err != nil {
				select {
				case c.writeErrCh <- err:
				case <-c.done:
				}
				return
			}
			if f.last {
				select {
				case c.writeFlushed <- struct{}{}:
				case <-c.done:
				}
				return
			}
		}
	}
}

// writeFrame writes one encoded frame within the write timeout, resuming
// after short writes from transports that return them.
func (c *Conn) writeFrame(data []byte) error {
	if err := c.tr.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	for off := 0; off < len(data); {
		n, err := c.tr.Write(data[off:])
		off += n
		if err != nil {
			return err
		}
	}
	return nil
}
