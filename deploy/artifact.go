package deploy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is the subset of a Hardhat build artifact the deployer needs
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// ArtifactPath returns where Hardhat writes the artifact of contract name
func ArtifactPath(artifactsDir, name string) string {
	return filepath.Join(artifactsDir, "contracts", name+".sol", name+".json")
}

// LoadArtifact reads the compiled artifact of contract name
func LoadArtifact(artifactsDir, name string) (*Artifact, error) {
	path := ArtifactPath(artifactsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}
	if artifact.Bytecode == "" || artifact.Bytecode == "0x" {
		return nil, fmt.Errorf("artifact %s has no bytecode", path)
	}
	return &artifact, nil
}

// ParsedABI parses the artifact's ABI
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s abi: %w", a.ContractName, err)
	}
	return parsed, nil
}

// Code decodes the creation bytecode
func (a *Artifact) Code() ([]byte, error) {
	code, err := hexutil.Decode(a.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s bytecode: %w", a.ContractName, err)
	}
	return code, nil
}

// WriteABIModule writes a TypeScript module exporting the ABI as a const
// literal so the frontend gets full type inference
func WriteABIModule(dir, fileName, constName string, rawABI json.RawMessage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create abi dir: %w", err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, rawABI); err != nil {
		return "", fmt.Errorf("failed to compact abi: %w", err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent abi: %w", err)
	}

	path := filepath.Join(dir, fileName)
	content := fmt.Sprintf("export const %s = %s as const;", constName, indented.String())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
