package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"
	"github.com/shaunstanislauslau/plasticity"
	"github.com/shaunstanislauslau/plasticity/geom"
	"github.com/shaunstanislauslau/plasticity/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("add"),
	readline.PcItem("replace"),
	readline.PcItem("remove"),
	readline.PcItem("select"),
	readline.PcItem("list"),

	readline.PcItem("undo"),
	readline.PcItem("redo"),
	readline.PcItem("history"),

	readline.PcItem("save"),
	readline.PcItem("load"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// REPL drives one editor from a terminal.
type REPL struct {
	ed    *plasticity.Editor
	store *geom.Store
	rl    *readline.Instance
}

func (repl *REPL) Open() (err error) {
	repl.ed, err = plasticity.NewEditor(plasticity.EditorOptions{
		Logger: utils.NewDefaultLogger(slog.LevelWarn),
	})
	if err != nil {
		return
	}
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "◆ ",
		HistoryFile:     ".plasticity_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

func (repl *REPL) Close() error {
	if repl.store != nil {
		_ = repl.store.Close()
		repl.store = nil
	}
	if repl.ed != nil {
		_ = repl.ed.Close()
		repl.ed = nil
	}
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

// run executes one editor command through the executor and reports
// its terminal state.
func (repl *REPL) run(label string, effect plasticity.Effect) error {
	cmd := repl.ed.NewCommand(label, effect)
	if err := repl.ed.Enqueue(cmd).Wait(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", label, cmd.State())
	return nil
}

func parseVersion(arg string) (geom.Version, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(arg, "v"), 10, 64)
	if err != nil {
		return geom.BadVersion, fmt.Errorf("bad version %q", arg)
	}
	return geom.Version(n), nil
}

func (repl *REPL) CommandAdd(arg string) error {
	if arg == "" {
		return errors.New("usage: add <geometry>")
	}
	return repl.run("add "+arg, func(ctx context.Context) error {
		v, err := repl.ed.DB.AddItem(ctx, []byte(arg), geom.AgentUser)
		if err == nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", v, repl.ed.DB.Item(v).Name)
		}
		return err
	})
}

func (repl *REPL) CommandReplace(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return errors.New("usage: replace <version> <geometry>")
	}
	old, err := parseVersion(fields[0])
	if err != nil {
		return err
	}
	return repl.run("replace "+fields[0], func(ctx context.Context) error {
		if !repl.ed.DB.Has(old) {
			return fmt.Errorf("no item %s", old)
		}
		v, err := repl.ed.DB.ReplaceItem(ctx, old, []byte(fields[1]))
		if err == nil {
			fmt.Fprintf(os.Stderr, "%s -> %s\n", old, v)
		}
		return err
	})
}

func (repl *REPL) CommandRemove(arg string) error {
	v, err := parseVersion(arg)
	if err != nil {
		return err
	}
	return repl.run("remove "+arg, func(ctx context.Context) error {
		if !repl.ed.DB.Has(v) {
			return fmt.Errorf("no item %s", v)
		}
		repl.ed.Selection.Remove(v)
		return repl.ed.DB.RemoveItem(ctx, v)
	})
}

func (repl *REPL) CommandSelect(arg string) error {
	v, err := parseVersion(arg)
	if err != nil {
		return err
	}
	if !repl.ed.DB.Has(v) {
		return fmt.Errorf("no item %s", v)
	}
	if repl.ed.Selection.Toggle(v) {
		fmt.Fprintf(os.Stderr, "%s selected\n", v)
	} else {
		fmt.Fprintf(os.Stderr, "%s deselected\n", v)
	}
	return nil
}

func (repl *REPL) CommandList() error {
	for _, v := range repl.ed.DB.List() {
		it := repl.ed.DB.Item(v)
		mark := " "
		if repl.ed.Selection.Has(v) {
			mark = "*"
		}
		fmt.Fprintf(os.Stderr, "%s %s\t%s\t%q\n", mark, v, it.Name, it.Geometry)
	}
	return nil
}

func (repl *REPL) CommandHistory() error {
	labels := repl.ed.History.Labels()
	cursor := repl.ed.History.Cursor()
	for i, label := range labels {
		mark := " "
		if i+1 == cursor {
			mark = ">"
		}
		fmt.Fprintf(os.Stderr, "%s %d\t%s\n", mark, i+1, label)
	}
	return nil
}

func (repl *REPL) openStore(path string) (err error) {
	if repl.store != nil {
		_ = repl.store.Close()
		repl.store = nil
	}
	repl.store, err = geom.OpenStore(path, geom.StoreOptions{})
	return
}

func (repl *REPL) CommandSave(arg string) error {
	if arg == "" {
		return errors.New("usage: save <dir>")
	}
	if err := repl.openStore(arg); err != nil {
		return err
	}
	return repl.ed.Save(context.Background(), repl.store)
}

func (repl *REPL) CommandLoad(arg string) error {
	if arg == "" {
		return errors.New("usage: load <dir>")
	}
	if err := repl.openStore(arg); err != nil {
		return err
	}
	return repl.ed.Load(context.Background(), repl.store)
}

const help = `add <geometry>             create an item
replace <version> <geometry>  swap an item's geometry, keeping its name
remove <version>           delete an item
select <version>           toggle selection
list                       show user items
undo / redo                move through history
history                    show the undo stack
save <dir> / load <dir>    persist / restore the document
exit                       leave`

func (repl *REPL) REPL() error {
	line, err := repl.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	verb, arg := line, ""
	if ws := strings.IndexAny(line, " \t"); ws > 0 {
		verb = line[:ws]
		arg = strings.TrimSpace(line[ws:])
	}

	ctx := context.Background()
	switch verb {
	case "help":
		fmt.Fprintln(os.Stderr, help)
	case "add":
		err = repl.CommandAdd(arg)
	case "replace":
		err = repl.CommandReplace(arg)
	case "remove":
		err = repl.CommandRemove(arg)
	case "select":
		err = repl.CommandSelect(arg)
	case "ls", "show", "list":
		err = repl.CommandList()
	case "undo":
		if err = repl.ed.Undo(ctx); errors.Is(err, plasticity.ErrNothingToUndo) {
			fmt.Fprintln(os.Stderr, "nothing to undo")
			err = nil
		}
	case "redo":
		if err = repl.ed.Redo(ctx); errors.Is(err, plasticity.ErrNothingToRedo) {
			fmt.Fprintln(os.Stderr, "nothing to redo")
			err = nil
		}
	case "history":
		err = repl.CommandHistory()
	case "save":
		err = repl.CommandSave(arg)
	case "load":
		err = repl.CommandLoad(arg)
	case "exit", "quit":
		return io.EOF
	default:
		fmt.Fprintf(os.Stderr, "command unknown: %s\n", verb)
	}
	return err
}

func main() {
	repl := REPL{}
	err := repl.Open()
	for err == nil {
		err = repl.REPL()
		if err != nil && err != io.EOF {
			fmt.Fprintln(os.Stdout, err.Error())
			err = nil
		}
	}
	_ = repl.Close()
}
