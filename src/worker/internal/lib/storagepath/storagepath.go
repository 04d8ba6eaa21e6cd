package storagepath

import "fmt"

type Generator struct {
	Host   string
	Bucket string
}

func (g Generator) GeneratePath(sessionID string, leafPath string) string {
	return fmt.Sprintf("%s/%s/sessions/%s/%s", g.Host, g.Bucket, sessionID, leafPath)
}
