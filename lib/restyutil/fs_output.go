package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// FilesystemOutput writes one text file per HTTP exchange into a directory.
type FilesystemOutput struct {
	directory string
	idcounter *uint64
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	var idcounter uint64
	return FilesystemOutput{directory: dir, idcounter: &idcounter}, nil
}

func (o FilesystemOutput) Write(contents string) {
	id := atomic.AddUint64(o.idcounter, 1)
	path := filepath.Join(o.directory, fmt.Sprintf("%04d.txt", id))
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "path", path, "err", err)
	}
}

// DumpResponses writes every response the client receives to `output`.
func DumpResponses(client *resty.Client, output FilesystemOutput) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		output.Write(FormatHttpMessage(res))
		return nil
	})
}
