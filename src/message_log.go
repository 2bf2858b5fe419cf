package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Sinks for completed messages.
 *
 * Description: Two destinations, both flushed after every EOT:
 *
 *		received_<name>.txt - append-only, one message per
 *		line.  This is the contractual sink.
 *
 *		An optional CSV message log with daily file names,
 *		one row per message: record id, node, UTC timestamp,
 *		byte count, text.  Easy to read and to post-process,
 *		rather than the raw console scroll.  Disabled unless a
 *		directory is configured.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/rs/xid"
)

const message_log_pattern = "%Y-%m-%d.log"

type MessageLog struct {
	node string

	recv_file *os.File /* received_<name>.txt, kept open */

	csv_dir    string
	csv_file   *os.File
	open_fname string
}

func NewMessageLog(node string, recv_dir string, csv_dir string) (*MessageLog, error) {
	var ml = &MessageLog{node: node, csv_dir: csv_dir}

	var recv_path = filepath.Join(recv_dir, "received_"+node+".txt")
	var f, err = os.OpenFile(recv_path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", recv_path, err)
	}
	ml.recv_file = f

	text_color_set(DW_COLOR_INFO)
	dw_printf("[%s] Writing received messages to: %s\n", node, recv_path)

	return ml, nil
}

/*------------------------------------------------------------------
 *
 * Name:	Record
 *
 * Purpose:	Persist one completed message.
 *
 *------------------------------------------------------------------*/

func (ml *MessageLog) Record(message string) {
	fmt.Fprintf(ml.recv_file, "%s\n", message)
	ml.recv_file.Sync() //nolint:errcheck

	if len(ml.csv_dir) == 0 {
		return
	}

	var now = time.Now().UTC()

	// Daily names, same strategy as a packet log: close the current
	// file when the date rolls over.
	var fname, ftErr = strftime.Format(message_log_pattern, now)
	if ftErr != nil {
		text_color_set(DW_COLOR_ERROR)
		dw_printf("Message log name error: %s\n", ftErr)
		return
	}

	if ml.csv_file != nil && fname != ml.open_fname {
		ml.csv_file.Close()
		ml.csv_file = nil
	}

	if ml.csv_file == nil {
		var full_path = filepath.Join(ml.csv_dir, fname)

		var _, statErr = os.Stat(full_path)
		var already_there = statErr == nil

		var f, openErr = os.OpenFile(full_path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if openErr != nil {
			text_color_set(DW_COLOR_ERROR)
			dw_printf("Can't open message log \"%s\" for write: %s\n", full_path, openErr)
			return
		}
		ml.csv_file = f
		ml.open_fname = fname

		if !already_there {
			fmt.Fprintf(ml.csv_file, "id,node,utc,bytes,message\n")
		}
	}

	var w = csv.NewWriter(ml.csv_file)
	w.Write([]string{ //nolint:errcheck
		xid.New().String(),
		ml.node,
		now.Format("2006-01-02T15:04:05Z"),
		strconv.Itoa(len(message)),
		message,
	})
	w.Flush()

	if err := w.Error(); err != nil {
		text_color_set(DW_COLOR_ERROR)
		dw_printf("Message log write error: %s\n", err)
	}
}

func (ml *MessageLog) Close() {
	if ml.recv_file != nil {
		ml.recv_file.Close()
		ml.recv_file = nil
	}
	if ml.csv_file != nil {
		ml.csv_file.Close()
		ml.csv_file = nil
		ml.open_fname = ""
	}
}
