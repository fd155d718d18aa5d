package converter

import (
	"fmt"
	"strconv"

	"github.com/napolitain/resource-engine/internal/models"
)

// EncodeValueDto writes <entity>@<resources>@<epochMillis>
func EncodeValueDto(dto models.ValueDto) string {
	return EncodeEntityID(dto.Entity) +
		ObjectSeparator + EncodeResources(dto.Resources) +
		ObjectSeparator + strconv.FormatInt(dto.Time, 10)
}

// DecodeValueDto parses the form written by EncodeValueDto
func DecodeValueDto(s string) (models.ValueDto, error) {
	fields, err := splitObject(s, 3)
	if err != nil {
		return models.ValueDto{}, fmt.Errorf("value dto: %w", err)
	}
	entity, err := DecodeEntityID(fields[0])
	if err != nil {
		return models.ValueDto{}, fmt.Errorf("value dto: %w", err)
	}
	resources, err := DecodeResources(fields[1])
	if err != nil {
		return models.ValueDto{}, fmt.Errorf("value dto: %w", err)
	}
	t, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return models.ValueDto{}, fmt.Errorf("value dto: %w", malformed("time %q", fields[2]))
	}
	return models.ValueDto{Entity: entity, Resources: resources, Time: t}, nil
}

// EncodeTransferDto writes <receiver>@<giver>@<resources>@<cause>
func EncodeTransferDto(dto models.TransferDto) string {
	return EncodePlayerID(dto.Receiver) +
		ObjectSeparator + EncodePlayerID(dto.Giver) +
		ObjectSeparator + EncodeResources(dto.Resources) +
		ObjectSeparator + EncodeTransferCause(dto.Cause)
}

// DecodeTransferDto parses the form written by EncodeTransferDto
func DecodeTransferDto(s string) (models.TransferDto, error) {
	fields, err := splitObject(s, 4)
	if err != nil {
		return models.TransferDto{}, fmt.Errorf("transfer dto: %w", err)
	}
	receiver, err := DecodePlayerID(fields[0])
	if err != nil {
		return models.TransferDto{}, fmt.Errorf("transfer dto: %w", err)
	}
	giver, err := DecodePlayerID(fields[1])
	if err != nil {
		return models.TransferDto{}, fmt.Errorf("transfer dto: %w", err)
	}
	resources, err := DecodeResources(fields[2])
	if err != nil {
		return models.TransferDto{}, fmt.Errorf("transfer dto: %w", err)
	}
	cause, err := DecodeTransferCause(fields[3])
	if err != nil {
		return models.TransferDto{}, fmt.Errorf("transfer dto: %w", err)
	}
	return models.TransferDto{Receiver: receiver, Giver: giver, Resources: resources, Cause: cause}, nil
}

// EncodeTransferOrder writes <giver>@<receiver>@<resources>@<cause> with entity identifiers
func EncodeTransferOrder(o models.TransferOrder) string {
	return EncodeEntityID(o.Giver) +
		ObjectSeparator + EncodeEntityID(o.Receiver) +
		ObjectSeparator + EncodeResources(o.Resources) +
		ObjectSeparator + EncodeTransferCause(o.Cause)
}

// DecodeTransferOrder parses the form written by EncodeTransferOrder
func DecodeTransferOrder(s string) (models.TransferOrder, error) {
	fields, err := splitObject(s, 4)
	if err != nil {
		return models.TransferOrder{}, fmt.Errorf("transfer order: %w", err)
	}
	giver, err := DecodeEntityID(fields[0])
	if err != nil {
		return models.TransferOrder{}, fmt.Errorf("transfer order: %w", err)
	}
	receiver, err := DecodeEntityID(fields[1])
	if err != nil {
		return models.TransferOrder{}, fmt.Errorf("transfer order: %w", err)
	}
	resources, err := DecodeResources(fields[2])
	if err != nil {
		return models.TransferOrder{}, fmt.Errorf("transfer order: %w", err)
	}
	cause, err := DecodeTransferCause(fields[3])
	if err != nil {
		return models.TransferOrder{}, fmt.Errorf("transfer order: %w", err)
	}
	return models.TransferOrder{Giver: giver, Receiver: receiver, Resources: resources, Cause: cause}, nil
}
