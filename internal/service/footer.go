package service

// FooterVisible reports whether the fixed footer shows: the viewport's bottom
// edge must still be above the top of the form section.
func FooterVisible(scrollY, viewportHeight, formSectionTop int) bool {
	return scrollY+viewportHeight < formSectionTop
}
