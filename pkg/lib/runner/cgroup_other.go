//go:build unix && !linux

package runner

func procAttr(id string, limits Limits) (*sysProcAttr, error) {
	return &sysProcAttr{Raw: groupAttr()}, nil
}

func killCgroup(root, id string) (bool, error) {
	return false, nil
}

func cleanupCgroup(root, id string) error {
	return nil
}
