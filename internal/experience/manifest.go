package experience

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ManifestSuffix is appended to the data file path to name its manifest
const ManifestSuffix = ".manifest.json"

// Manifest describes a data file without being part of it
type Manifest struct {
	RunID       string
	Session     string
	CreatedAt   time.Time
	DataFile    string
	Episodes    int
	Transitions int
	FrameShape  [3]int
	ActionShape [3]int
	Actions     []string
}

// ManifestPath returns the sidecar path for a data file
func ManifestPath(dataPath string) string {
	return dataPath + ManifestSuffix
}

// NewRunID returns a fresh random run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Describe fills the manifest counts and shapes from m
func (mf *Manifest) Describe(m *Memory) {
	mf.Transitions = m.Len()
	if m.Len() == 0 {
		return
	}
	first := m.At(0)
	mf.FrameShape = first.State.Shape()
	mf.ActionShape = first.Action.Shape
}

func (mf *Manifest) toStruct() (*structpb.Struct, error) {
	actions := make([]interface{}, len(mf.Actions))
	for i, a := range mf.Actions {
		actions[i] = a
	}
	return structpb.NewStruct(map[string]interface{}{
		"run_id":       mf.RunID,
		"session":      mf.Session,
		"created_at":   mf.CreatedAt.UTC().Format(time.RFC3339),
		"data_file":    mf.DataFile,
		"episodes":     mf.Episodes,
		"transitions":  mf.Transitions,
		"frame_shape":  shapeList(mf.FrameShape),
		"action_shape": shapeList(mf.ActionShape),
		"actions":      actions,
	})
}

// WriteManifest writes mf as indented JSON to path
func WriteManifest(path string, mf Manifest) error {
	s, err := mf.toStruct()
	if err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return Manifest{}, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	fields := s.GetFields()
	mf := Manifest{
		RunID:       fields["run_id"].GetStringValue(),
		Session:     fields["session"].GetStringValue(),
		DataFile:    fields["data_file"].GetStringValue(),
		Episodes:    int(fields["episodes"].GetNumberValue()),
		Transitions: int(fields["transitions"].GetNumberValue()),
		FrameShape:  parseShape(fields["frame_shape"]),
		ActionShape: parseShape(fields["action_shape"]),
	}
	if ts := fields["created_at"].GetStringValue(); ts != "" {
		created, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return Manifest{}, fmt.Errorf("invalid manifest timestamp %q: %w", ts, err)
		}
		mf.CreatedAt = created
	}
	for _, v := range fields["actions"].GetListValue().GetValues() {
		mf.Actions = append(mf.Actions, v.GetStringValue())
	}
	return mf, nil
}

func shapeList(shape [3]int) []interface{} {
	return []interface{}{shape[0], shape[1], shape[2]}
}

func parseShape(v *structpb.Value) [3]int {
	var shape [3]int
	for i, x := range v.GetListValue().GetValues() {
		if i < len(shape) {
			shape[i] = int(x.GetNumberValue())
		}
	}
	return shape
}
