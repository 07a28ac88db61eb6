package framewriter

import "github.com/kataras/golog"

var logger = golog.Child("[framewriter]")
