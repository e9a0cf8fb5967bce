package directory

import (
	"encoding/json"
	"fmt"
)

// CommandType names a mutation.
type CommandType string

const (
	CommandCreateOrganization CommandType = "createOrganization"
	CommandUpdateOrganization CommandType = "updateOrganization"
	CommandCreateUser         CommandType = "createUser"
	CommandUpdateUser         CommandType = "updateUser"
)

// CommandTypes lists every command type.
var CommandTypes = []CommandType{
	CommandCreateOrganization,
	CommandUpdateOrganization,
	CommandCreateUser,
	CommandUpdateUser,
}

// commandFields lists the fields each command type must carry.
var commandFields = map[CommandType][]string{
	CommandCreateOrganization: {AttrName, AttrDescription},
	CommandUpdateOrganization: {AttrName, AttrDescription},
	CommandCreateUser:         {AttrOrgID, AttrName, AttrEmail},
	CommandUpdateUser:         {AttrName, AttrEmail},
}

// Command is a serialized create or update, applied directly or through a queue.
type Command struct {
	// CommandID identifies this submission. Redeliveries keep the same ID.
	CommandID   string            `json:"commandId"`
	CommandType CommandType       `json:"commandType"`
	EntityID    string            `json:"entityId"`
	Fields      map[string]string `json:"fields"`
}

// Validate checks the command type, entity ID and required fields.
func (c Command) Validate() error {
	required, ok := commandFields[c.CommandType]
	if !ok {
		return fmt.Errorf("unknown command type %q", c.CommandType)
	}
	if c.EntityID == "" {
		return fmt.Errorf("%s: missing entity id", c.CommandType)
	}
	for _, field := range required {
		if c.Fields[field] == "" {
			return fmt.Errorf("%s %s: missing field %q", c.CommandType, c.EntityID, field)
		}
	}
	return nil
}

// fieldsFor returns only the fields the command type carries.
func (c Command) fieldsFor() map[string]string {
	out := make(map[string]string, len(commandFields[c.CommandType]))
	for _, field := range commandFields[c.CommandType] {
		out[field] = c.Fields[field]
	}
	return out
}

// EncodeCommand serializes a command for the queue.
func EncodeCommand(c Command) ([]byte, error) {
	return json.Marshal(c)
}

// DecodeCommand parses and validates a queued command.
func DecodeCommand(body []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(body, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}
