package output

import "fmt"

// Action messages for mutating resource commands.

// Created renders a resource creation message.
func Created(resourceType, name, namespace string) string {
	return fmt.Sprintf("%s '%s' created in namespace '%s'", resourceType, name, namespace)
}

// Replaced renders a resource replacement message.
func Replaced(resourceType, name, namespace string) string {
	return fmt.Sprintf("%s '%s' replaced in namespace '%s'", resourceType, name, namespace)
}

// Deleted renders a resource deletion message.
func Deleted(resourceType, name, namespace string) string {
	return fmt.Sprintf("%s '%s' deleted from namespace '%s'", resourceType, name, namespace)
}

// Labeled renders a label update message.
func Labeled(resourceType, name string, count int) string {
	noun := "labels"
	if count == 1 {
		noun = "label"
	}
	return fmt.Sprintf("%s '%s' updated (%d %s)", resourceType, name, count, noun)
}

// Patched renders a partial update message.
func Patched(resourceType, name, namespace string) string {
	return fmt.Sprintf("%s '%s' patched in namespace '%s'", resourceType, name, namespace)
}
