package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/metadata"
)

type jsonOutput struct {
	jsonOutput bool
	jsonIndent bool

	out io.Writer
}

func (c *jsonOutput) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("json", "Output result in JSON format to stdout").BoolVar(&c.jsonOutput)
	cmd.Flag("json-indent", "Output result in indented JSON format to stdout").Hidden().BoolVar(&c.jsonIndent)

	c.out = svc.stdout()
}

// archivedDirectoryJSON adds metadata projection to the descriptor.
type archivedDirectoryJSON struct {
	*archive.ArchivedDirectory

	Metadata metadata.Items `json:"metadata"`
}

func (c *jsonOutput) cleanupForJSON(v interface{}) interface{} {
	switch v := v.(type) {
	case *archive.ArchivedDirectory:
		return archivedDirectoryJSON{v, v.ToMetadata()}
	default:
		return v
	}
}

func (c *jsonOutput) jsonBytes(v interface{}) []byte {
	v = c.cleanupForJSON(v)

	var (
		b   []byte
		err error
	)

	if c.jsonIndent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}

	if err != nil {
		panic("error serializing JSON, that should not happen: " + err.Error())
	}

	return b
}

// emit prints v as JSON when JSON output was requested and returns true, otherwise it returns false.
func (c *jsonOutput) emit(v interface{}) bool {
	if !c.jsonOutput && !c.jsonIndent {
		return false
	}

	fmt.Fprintf(c.out, "%s\n", c.jsonBytes(v)) //nolint:errcheck

	return true
}
