// Package fuzztests houses Go fuzz harnesses for the front of the pipeline
// (document -> declarations -> struct layout). They guard against panics,
// hangs and layouts that break the overlap invariants on arbitrary input.
//
// Назначение: прогонять байты через decl.Parse и StructTranslator и проверять
// инварианты testkit.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
